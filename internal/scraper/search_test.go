package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	pages map[int]string
	calls []int
	err   error
}

func (f *stubFetcher) FetchPage(_ context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	n, _ := strconv.Atoi(u.Query().Get("page"))
	f.calls = append(f.calls, n)

	if f.err != nil {
		return "", f.err
	}
	return f.pages[n], nil
}

func (f *stubFetcher) Close() error { return nil }

func resultPage(titles ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, title := range titles {
		sb.WriteString(`<div data-component-type="s-search-result"><h2><span>` + title + `</span></h2></div>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		page     int
		expected string
	}{
		{
			name:     "appends page parameter",
			url:      "https://www.amazon.in/s?k=dal",
			page:     2,
			expected: "https://www.amazon.in/s?k=dal&page=2",
		},
		{
			name:     "rewrites existing page parameter",
			url:      "https://www.amazon.in/s?k=dal&page=9",
			page:     3,
			expected: "https://www.amazon.in/s?k=dal&page=3",
		},
		{
			name:     "no query string",
			url:      "https://www.amazon.in/s",
			page:     1,
			expected: "https://www.amazon.in/s?page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pageURL(tt.url, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScrapeSearchStopsOnEmptyPage(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[int]string{
			1: resultPage("Tata Sampann Moong Dal 500g", "Solimo Toor Dal 1kg"),
			2: resultPage("Fortune Chana Dal 500g"),
			3: resultPage(),
			4: resultPage("Never Reached Urad Dal 1kg"),
		},
	}

	s := NewSearchScraper(fetcher, parser.NewSearchParser(), testLogger())

	table, err := s.ScrapeSearch(context.Background(), "https://www.amazon.in/s?k=toor+dal", 5)
	require.NoError(t, err)

	assert.Len(t, table, 3)
	assert.Equal(t, []int{1, 2, 3}, fetcher.calls)
	assert.Equal(t, "Fortune Chana Dal 500g", table[2].ProductName)
}

func TestScrapeSearchHonorsPageLimit(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[int]string{
			1: resultPage("Tata Sampann Moong Dal 500g"),
			2: resultPage("Solimo Toor Dal 1kg"),
			3: resultPage("Fortune Chana Dal 500g"),
		},
	}

	s := NewSearchScraper(fetcher, parser.NewSearchParser(), testLogger())

	table, err := s.ScrapeSearch(context.Background(), "https://www.amazon.in/s?k=dal", 2)
	require.NoError(t, err)

	assert.Len(t, table, 2)
	assert.Equal(t, []int{1, 2}, fetcher.calls)
}

func TestScrapeSearchRejectsNonMarketplaceURL(t *testing.T) {
	s := NewSearchScraper(&stubFetcher{}, parser.NewSearchParser(), testLogger())

	_, err := s.ScrapeSearch(context.Background(), "https://example.com/s?k=dal", 5)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestScrapeSearchPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("navigation timeout")
	s := NewSearchScraper(&stubFetcher{err: fetchErr}, parser.NewSearchParser(), testLogger())

	_, err := s.ScrapeSearch(context.Background(), "https://www.amazon.in/s?k=dal", 5)
	assert.ErrorIs(t, err, fetchErr)
}

func TestScrapeSearchStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSearchScraper(&stubFetcher{}, parser.NewSearchParser(), testLogger())

	_, err := s.ScrapeSearch(ctx, "https://www.amazon.in/s?k=dal", 5)
	assert.ErrorIs(t, err, context.Canceled)
}
