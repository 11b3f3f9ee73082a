package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/export"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/jobs"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/parser"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/scraper"
)

const maxUploadBytes = 20 << 20

type Handlers struct {
	jobs   *jobs.Manager
	parser parser.Parser
	images *export.ImageDownloader
	logger *slog.Logger
}

func NewHandlers(manager *jobs.Manager, p parser.Parser, images *export.ImageDownloader, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:   manager,
		parser: p,
		images: images,
		logger: logger,
	}
}

// Router wires the scrape API under one subrouter.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/scrape", h.CreateScrape)
	r.Post("/parse", h.ParseUpload)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobID}", h.GetJob)
	r.Get("/jobs/{jobID}/products", h.GetJobProducts)
	r.Get("/jobs/{jobID}/export", h.ExportJob)
	r.Post("/jobs/{jobID}/images", h.DownloadImages)
	return r
}

// ScrapeRequest asks for a live scrape of a search URL.
type ScrapeRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
}

type ScrapeResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateScrape queues a live scrape job.
func (h *Handlers) CreateScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "please provide a search URL or upload an HTML file")
		return
	}

	job, err := h.jobs.CreateScrapeJob(r.Context(), req.URL, req.MaxPages)
	if errors.Is(err, scraper.ErrInvalidURL) {
		h.respondError(w, http.StatusBadRequest, "URL does not look like an Amazon search URL")
		return
	}
	if err != nil {
		h.logger.Error("failed to create scrape job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusAccepted, ScrapeResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "scrape queued",
	})
}

// ParseUpload parses an uploaded search-page snapshot synchronously and
// records the result as a completed job.
func (h *Handlers) ParseUpload(w http.ResponseWriter, r *http.Request) {
	html, err := readUpload(w, r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(html) == 0 {
		h.respondError(w, http.StatusBadRequest, "please provide a search URL or upload an HTML file")
		return
	}

	table, err := h.parser.ParseSearchPage(string(html))
	if err != nil {
		h.logger.Error("failed to parse uploaded document", "error", err)
		h.respondError(w, http.StatusUnprocessableEntity, "failed to parse HTML document")
		return
	}

	job, err := h.jobs.SaveParsedTable(r.Context(), table)
	if err != nil {
		h.logger.Error("failed to save parse job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to save job")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	// Status listings carry counts, not tables.
	for _, job := range list {
		job.Records = nil
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	job.Records = nil
	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) GetJobProducts(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	records := job.Records
	if records == nil {
		records = models.ProductTable{}
	}
	h.respondJSON(w, http.StatusOK, records)
}

// ExportJob streams the job's table as an xlsx workbook.
func (h *Handlers) ExportJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultWorkbookName))

	if err := export.WriteExcel(w, job.Records); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("failed to write workbook", "job_id", job.ID, "error", err)
	}
}

// DownloadImages fetches every image of the job's table and reports one
// result per attempted record.
func (h *Handlers) DownloadImages(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	results, err := h.images.DownloadAll(r.Context(), job.Records)
	if err != nil {
		h.logger.Error("failed to download images", "job_id", job.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to download images")
		return
	}
	if results == nil {
		results = []export.Result{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handlers) loadJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return nil, false
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		h.respondError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load job", "job_id", jobID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load job")
		return nil, false
	}

	return job, true
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file field")
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return io.ReadAll(r.Body)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
