package scraper

import (
	"context"
	"errors"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
)

// DefaultMaxPages bounds a live scrape when the caller does not say
// otherwise; the empty-page stop usually fires first.
const DefaultMaxPages = 5

var ErrInvalidURL = errors.New("invalid Amazon search URL")

// Scraper produces a product table from a live paginated search URL.
type Scraper interface {
	ScrapeSearch(ctx context.Context, searchURL string, maxPages int) (models.ProductTable, error)
	Close() error
}

// PageFetcher retrieves the rendered HTML of one marketplace page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
	Close() error
}
