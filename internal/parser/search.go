package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
)

const (
	resultSelector   = `div[data-component-type="s-search-result"]`
	titleSelector    = "h2 span"
	brandSelector    = "h5.s-line-clamp-1"
	wholeSelector    = ".a-price-whole"
	fractionSelector = ".a-price-fraction"
	imageSelector    = "img.s-image"

	amazonBrandPrefix = "Amazon Brand - "
	currencySymbol    = "₹"
)

// brandKeywords are generic product-type words. The brand is whatever
// precedes the first one in the title.
var brandKeywords = map[string]struct{}{
	"dal":    {},
	"masoor": {},
	"toor":   {},
	"moong":  {},
	"urad":   {},
	"chana":  {},
	"lentil": {},
	"split":  {},
}

// SearchParser extracts product records from Amazon search-result pages.
type SearchParser struct {
	packSizeRe *regexp.Regexp
}

func NewSearchParser() *SearchParser {
	return &SearchParser{
		packSizeRe: regexp.MustCompile(`(?i)\d+\.?\d*\s?(g|kg|ml|l|gm)`),
	}
}

// ParseSearchPage extracts one ProductRecord per search-result fragment,
// preserving document order. A page with no matching fragments yields an
// empty table and no error; the pagination loop treats that as the
// end-of-results signal.
func (p *SearchParser) ParseSearchPage(html string) (models.ProductTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := models.ProductTable{}
	doc.Find(resultSelector).Each(func(i int, item *goquery.Selection) {
		table = append(table, p.extractRecord(item))
	})

	return table, nil
}

func (p *SearchParser) extractRecord(item *goquery.Selection) models.ProductRecord {
	title := models.NA
	if t := item.Find(titleSelector).First(); t.Length() > 0 {
		title = strings.TrimSpace(t.Text())
	}

	// Brand inference sees the raw title; pack size sees the normalized one.
	brand := p.ExtractBrandName(item, title)

	title = stripAmazonBrandPrefix(title)
	brand = stripAmazonBrandPrefix(brand)

	return models.ProductRecord{
		ProductName: title,
		BrandName:   brand,
		PackSize:    p.ExtractPackSize(title),
		Price:       extractPrice(item),
		ImageURL:    extractImageURL(item),
	}
}

// ExtractPackSize returns the first quantity+unit token in text verbatim,
// or NA when no such token occurs. No validation that the unit is plausible
// for the product.
func (p *SearchParser) ExtractPackSize(text string) string {
	if m := p.packSizeRe.FindString(text); m != "" {
		return m
	}
	return models.NA
}

// ExtractBrandName infers the brand for one search-result fragment. An
// explicit brand label in the markup is trusted verbatim when present;
// otherwise the brand is whatever precedes the first generic keyword in the
// title, and failing that, the title's first word.
func (p *SearchParser) ExtractBrandName(item *goquery.Selection, title string) string {
	if label := strings.TrimSpace(item.Find(brandSelector).First().Text()); label != "" {
		return label
	}

	words := strings.Fields(title)
	for i, word := range words {
		if _, ok := brandKeywords[strings.ToLower(word)]; ok {
			if i > 0 {
				return strings.Join(words[:i], " ")
			}
			// Keyword is the first word: nothing precedes it.
			return models.NA
		}
	}

	if len(words) > 0 {
		return words[0]
	}
	return models.NA
}

func stripAmazonBrandPrefix(s string) string {
	if strings.HasPrefix(s, amazonBrandPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(s, amazonBrandPrefix))
	}
	return s
}

// extractPrice composes the two separately rendered price parts as they
// appear, trimmed. No rounding or thousands-separator handling.
func extractPrice(item *goquery.Selection) string {
	whole := item.Find(wholeSelector).First()
	if whole.Length() == 0 {
		return models.NA
	}

	if fraction := item.Find(fractionSelector).First(); fraction.Length() > 0 {
		return currencySymbol + strings.TrimSpace(whole.Text()) + "." + strings.TrimSpace(fraction.Text())
	}
	return currencySymbol + strings.TrimSpace(whole.Text())
}

func extractImageURL(item *goquery.Selection) string {
	if src, ok := item.Find(imageSelector).First().Attr("src"); ok {
		return src
	}
	return models.NA
}
