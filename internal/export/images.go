package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
)

const (
	// DefaultImageDir is where downloaded product images land.
	DefaultImageDir = "product_images"
	// DefaultImageTimeout bounds a single image fetch.
	DefaultImageTimeout = 10 * time.Second

	maxFilenameLen = 80
)

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters that are illegal in filenames, trims
// edge whitespace, collapses whitespace runs to a single underscore and
// truncates the result to 80 characters.
func SanitizeFilename(name string) string {
	name = illegalFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	name = whitespaceRuns.ReplaceAllString(name, "_")

	runes := []rune(name)
	if len(runes) > maxFilenameLen {
		runes = runes[:maxFilenameLen]
	}
	return string(runes)
}

// Result reports the outcome of one image download attempt.
type Result struct {
	ProductName string `json:"product_name"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ImageDownloader fetches product images one at a time, best effort: a
// failed record is reported in its Result and never aborts the rest.
type ImageDownloader struct {
	client *http.Client
	dir    string
	logger *slog.Logger
}

func NewImageDownloader(dir string, timeout time.Duration, logger *slog.Logger) *ImageDownloader {
	if dir == "" {
		dir = DefaultImageDir
	}
	if timeout <= 0 {
		timeout = DefaultImageTimeout
	}
	return &ImageDownloader{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
		logger: logger.With("component", "image_downloader"),
	}
}

// DownloadAll fetches the image of every record with a usable image URL and
// writes it under the output directory, created if absent. One Result per
// attempted record.
func (d *ImageDownloader) DownloadAll(ctx context.Context, table models.ProductTable) ([]Result, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	var results []Result
	for _, rec := range table {
		if rec.ImageURL == models.NA {
			continue
		}

		path := filepath.Join(d.dir, SanitizeFilename(rec.ProductName)+".jpg")
		if err := d.download(ctx, rec.ImageURL, path); err != nil {
			d.logger.Warn("failed to download image", "product", rec.ProductName, "error", err)
			results = append(results, Result{ProductName: rec.ProductName, Error: err.Error()})
			continue
		}

		results = append(results, Result{ProductName: rec.ProductName, Path: path})
	}

	return results, nil
}

func (d *ImageDownloader) download(ctx context.Context, imageURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
