package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/browser"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/export"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/parser"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/scraper"
)

func main() {
	var (
		searchURL = flag.String("url", "", "Amazon search URL to scrape live")
		htmlFile  = flag.String("file", "", "Saved search-results HTML file to parse instead")
		pages     = flag.Int("pages", scraper.DefaultMaxPages, "Maximum number of search pages to scrape")
		out       = flag.String("out", "", "Write the table as an xlsx workbook to this path")
		images    = flag.Bool("images", false, "Download product images")
		imagesDir = flag.String("images-dir", export.DefaultImageDir, "Directory for downloaded images")
		headless  = flag.Bool("headless", true, "Run the browser in headless mode")
		format    = flag.String("format", "table", "Output format: table, json")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *searchURL == "" && *htmlFile == "" {
		fmt.Fprintln(os.Stderr, "please provide a search URL (-url) or an HTML file (-file)")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := parser.NewSearchParser()

	var (
		table models.ProductTable
		err   error
	)
	if *searchURL != "" {
		table, err = scrapeLive(ctx, p, *searchURL, *pages, *headless, logger)
	} else {
		table, err = parseFile(p, *htmlFile)
	}
	if err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}

	if table.IsEmpty() {
		logger.Warn("no products found")
		return
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(table); err != nil {
			logger.Error("failed to encode table", "error", err)
			os.Exit(1)
		}
	default:
		printTable(os.Stdout, table)
	}

	if *out != "" {
		if err := writeWorkbook(*out, table); err != nil {
			logger.Error("failed to write workbook", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", *out, "products", len(table))
	}

	if *images {
		d := export.NewImageDownloader(*imagesDir, export.DefaultImageTimeout, logger)
		results, err := d.DownloadAll(ctx, table)
		if err != nil {
			logger.Error("failed to download images", "error", err)
			os.Exit(1)
		}

		var failed int
		for _, res := range results {
			if res.Error != "" {
				failed++
			}
		}
		logger.Info("images downloaded", "dir", *imagesDir, "ok", len(results)-failed, "failed", failed)
	}
}

func scrapeLive(ctx context.Context, p parser.Parser, searchURL string, pages int, headless bool, logger *slog.Logger) (models.ProductTable, error) {
	opts := browser.DefaultOptions()
	opts.Headless = headless

	b, err := browser.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	fetcher := scraper.NewBrowserFetcher(b, scraper.DefaultSettleDelay)
	s := scraper.NewSearchScraper(fetcher, p, logger)
	defer s.Close()

	return s.ScrapeSearch(ctx, searchURL, pages)
}

func parseFile(p parser.Parser, path string) (models.ProductTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.ParseSearchPage(string(data))
}

func writeWorkbook(path string, table models.ProductTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return export.WriteExcel(f, table)
}

func printTable(w io.Writer, table models.ProductTable) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(models.Columns(), "\t"))
	for _, rec := range table {
		fmt.Fprintln(tw, strings.Join(rec.Row(), "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d products\n", len(table))
}
