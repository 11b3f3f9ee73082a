package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragment(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("div").First()
}

func TestExtractPackSize(t *testing.T) {
	p := NewSearchParser()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"grams attached", "Tata Sampann Moong Dal 500g", "500g"},
		{"kilograms attached", "Toor Dal 1kg Pouch", "1kg"},
		{"litres with space", "Sunflower Oil 1 L", "1 L"},
		{"millilitres", "Mustard Oil 750ml", "750ml"},
		{"decimal quantity", "Premium Masoor 1.5 kg value pack", "1.5 kg"},
		{"upper case unit", "Chana Dal 2KG", "2KG"},
		{"first occurrence wins", "Moong Dal 500g pack, total 1kg", "500g"},
		{"no unit", "Organic Chana Premium Quality", "N/A"},
		{"empty text", "", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ExtractPackSize(tt.text))
		})
	}
}

func TestExtractBrandName(t *testing.T) {
	p := NewSearchParser()
	plain := fragment(t, `<div></div>`)

	tests := []struct {
		name     string
		item     *goquery.Selection
		title    string
		expected string
	}{
		{
			name:     "explicit brand label preferred",
			item:     fragment(t, `<div><h5 class="s-line-clamp-1"> Tata Sampann </h5></div>`),
			title:    "Something Else Entirely",
			expected: "Tata Sampann",
		},
		{
			name:     "empty label falls through to title",
			item:     fragment(t, `<div><h5 class="s-line-clamp-1">   </h5></div>`),
			title:    "Tata Sampann Moong Dal 500g",
			expected: "Tata Sampann",
		},
		{
			name:     "keyword mid-title",
			item:     plain,
			title:    "Tata Sampann Moong Dal 500g",
			expected: "Tata Sampann",
		},
		{
			name:     "keyword is first word",
			item:     plain,
			title:    "Dal Premium 1kg",
			expected: "N/A",
		},
		{
			name:     "keyword match is case-insensitive",
			item:     plain,
			title:    "Organic MASOOR 1kg",
			expected: "Organic",
		},
		{
			name:     "no keyword falls back to first word",
			item:     plain,
			title:    "Fortune Basmati Rice",
			expected: "Fortune",
		},
		{
			name:     "empty title",
			item:     plain,
			title:    "",
			expected: "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ExtractBrandName(tt.item, tt.title))
		})
	}
}

const fullResultHTML = `<html><body>
<div data-component-type="s-search-result">
	<img class="s-image" src="https://m.media-amazon.com/images/I/81abc.jpg"/>
	<h2><a><span>Tata Sampann Moong Dal 500g</span></a></h2>
	<span class="a-price">
		<span class="a-price-whole">199</span>
		<span class="a-price-fraction">00</span>
	</span>
</div>
<div data-component-type="s-search-result">
	<h2><a><span>Organic Tower Chana 1kg</span></a></h2>
</div>
</body></html>`

func TestParseSearchPage(t *testing.T) {
	p := NewSearchParser()

	table, err := p.ParseSearchPage(fullResultHTML)
	require.NoError(t, err)
	require.Len(t, table, 2)

	first := table[0]
	assert.Equal(t, "Tata Sampann Moong Dal 500g", first.ProductName)
	assert.Equal(t, "Tata Sampann", first.BrandName)
	assert.Equal(t, "500g", first.PackSize)
	assert.Equal(t, "₹199.00", first.Price)
	assert.Equal(t, "https://m.media-amazon.com/images/I/81abc.jpg", first.ImageURL)

	second := table[1]
	assert.Equal(t, "Organic Tower Chana 1kg", second.ProductName)
	assert.Equal(t, "Organic Tower", second.BrandName)
	assert.Equal(t, "1kg", second.PackSize)
	assert.Equal(t, "N/A", second.Price)
	assert.Equal(t, "N/A", second.ImageURL)
}

func TestParseSearchPagePriceVariants(t *testing.T) {
	p := NewSearchParser()

	tests := []struct {
		name     string
		price    string
		expected string
	}{
		{
			name:     "whole and fraction",
			price:    `<span class="a-price-whole"> 199 </span><span class="a-price-fraction"> 00 </span>`,
			expected: "₹199.00",
		},
		{
			name:     "whole only",
			price:    `<span class="a-price-whole">199</span>`,
			expected: "₹199",
		},
		{
			name:     "no price",
			price:    ``,
			expected: "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<div data-component-type="s-search-result"><h2><span>Toor Dal 1kg</span></h2>` + tt.price + `</div>`
			table, err := p.ParseSearchPage(html)
			require.NoError(t, err)
			require.Len(t, table, 1)
			assert.Equal(t, tt.expected, table[0].Price)
		})
	}
}

func TestParseSearchPageAmazonBrandPrefix(t *testing.T) {
	p := NewSearchParser()

	html := `<div data-component-type="s-search-result">
		<h2><span>Amazon Brand - Solimo Toor Dal 1kg</span></h2>
	</div>`

	table, err := p.ParseSearchPage(html)
	require.NoError(t, err)
	require.Len(t, table, 1)

	assert.Equal(t, "Solimo Toor Dal 1kg", table[0].ProductName)
	assert.Equal(t, "Solimo", table[0].BrandName)
	assert.Equal(t, "1kg", table[0].PackSize)
}

func TestParseSearchPageNoResults(t *testing.T) {
	p := NewSearchParser()

	table, err := p.ParseSearchPage(`<html><body><div class="something-else">no products here</div></body></html>`)
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
}

func TestParseSearchPageKeepsDuplicates(t *testing.T) {
	p := NewSearchParser()

	single := `<div data-component-type="s-search-result"><h2><span>Toor Dal 1kg</span></h2></div>`
	table, err := p.ParseSearchPage(single + single)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, table[0], table[1])
}

func TestParseSearchPagePreservesDocumentOrder(t *testing.T) {
	p := NewSearchParser()

	var sb strings.Builder
	titles := []string{"Alpha Moong Dal 1kg", "Beta Urad Dal 500g", "Gamma Chana Dal 2kg"}
	for _, title := range titles {
		sb.WriteString(`<div data-component-type="s-search-result"><h2><span>` + title + `</span></h2></div>`)
	}

	table, err := p.ParseSearchPage(sb.String())
	require.NoError(t, err)
	require.Len(t, table, len(titles))
	for i, title := range titles {
		assert.Equal(t, title, table[i].ProductName)
	}
}
