package parser

import (
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
)

// Parser turns one search-results page into a product table.
type Parser interface {
	ParseSearchPage(html string) (models.ProductTable, error)
}
