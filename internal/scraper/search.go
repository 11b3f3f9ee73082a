package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/browser"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/parser"
)

// DefaultSettleDelay is how long a fetched page is given to render dynamic
// content before its HTML is read.
const DefaultSettleDelay = 5 * time.Second

// BrowserFetcher renders marketplace pages through a Playwright session.
type BrowserFetcher struct {
	browser *browser.Browser
	settle  time.Duration
}

func NewBrowserFetcher(b *browser.Browser, settle time.Duration) *BrowserFetcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &BrowserFetcher{browser: b, settle: settle}
}

func (f *BrowserFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	page, err := f.browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if err := f.browser.Navigate(page, pageURL); err != nil {
		return "", err
	}

	// Fixed settle delay so dynamically inserted results are present in
	// the snapshot.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(f.settle):
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}

// SearchScraper walks a paginated search URL and accumulates records in
// document order across pages.
type SearchScraper struct {
	fetcher PageFetcher
	parser  parser.Parser
	logger  *slog.Logger
}

func NewSearchScraper(f PageFetcher, p parser.Parser, logger *slog.Logger) *SearchScraper {
	return &SearchScraper{
		fetcher: f,
		parser:  p,
		logger:  logger.With("component", "search_scraper"),
	}
}

// ScrapeSearch fetches and parses pages 1..maxPages in order. The first
// page that parses to an empty table signals end-of-results and stops the
// walk; records from earlier pages are returned.
func (s *SearchScraper) ScrapeSearch(ctx context.Context, searchURL string, maxPages int) (models.ProductTable, error) {
	if !strings.Contains(searchURL, "amazon") {
		return nil, ErrInvalidURL
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	all := models.ProductTable{}

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		paged, err := pageURL(searchURL, pageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to build page URL: %w", err)
		}

		s.logger.Info("scraping search page", "page", pageNum, "url", paged)

		html, err := s.fetcher.FetchPage(ctx, paged)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", pageNum, err)
		}

		table, err := s.parser.ParseSearchPage(html)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", pageNum, err)
		}

		if table.IsEmpty() {
			s.logger.Warn("no products found on page, stopping", "page", pageNum)
			break
		}

		s.logger.Info("found products on page", "page", pageNum, "count", len(table))
		all = append(all, table...)
	}

	s.logger.Info("search scrape completed", "products", len(all))
	return all, nil
}

func (s *SearchScraper) Close() error {
	return s.fetcher.Close()
}

// pageURL rewrites an existing page query parameter or appends one.
func pageURL(searchURL string, page int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
