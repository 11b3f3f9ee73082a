package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/queue"
	"github.com/pantrylabs/amazon-lentil-scraper/internal/scraper"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	SourceLive   = "live"
	SourceUpload = "upload"

	emptyResultMessage = "no products found"
)

// Job tracks one scrape run from creation to its terminal state.
type Job struct {
	ID          string              `json:"id"`
	Source      string              `json:"source"`
	SearchURL   string              `json:"search_url,omitempty"`
	MaxPages    int                 `json:"max_pages,omitempty"`
	Status      string              `json:"status"`
	Message     string              `json:"message,omitempty"`
	Records     models.ProductTable `json:"records,omitempty"`
	RecordCount int                 `json:"record_count"`
	CreatedAt   time.Time           `json:"created_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Manager owns the scrape job lifecycle. A single worker drains the queue
// so scrapes execute one at a time and the browser session has exactly one
// owner per run.
type Manager struct {
	store   Store
	scraper scraper.Scraper
	queue   queue.Queue
	logger  *slog.Logger
}

func NewManager(store Store, s scraper.Scraper, q queue.Queue, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		scraper: s,
		queue:   q,
		logger:  logger.With("component", "jobs"),
	}
}

// CreateScrapeJob queues a live scrape of searchURL.
func (m *Manager) CreateScrapeJob(ctx context.Context, searchURL string, maxPages int) (*Job, error) {
	if !strings.Contains(searchURL, "amazon") {
		return nil, scraper.ErrInvalidURL
	}
	if maxPages <= 0 {
		maxPages = scraper.DefaultMaxPages
	}

	job := &Job{
		ID:        uuid.NewString(),
		Source:    SourceLive,
		SearchURL: searchURL,
		MaxPages:  maxPages,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := m.queue.Push(&queue.Task{
		JobID:     job.ID,
		SearchURL: searchURL,
		MaxPages:  maxPages,
		CreatedAt: job.CreatedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	m.logger.Info("scrape job queued", "job_id", job.ID, "url", searchURL, "max_pages", maxPages)
	return job, nil
}

// SaveParsedTable records a completed upload-parse run as a job so its table
// can be exported and its images downloaded later.
func (m *Manager) SaveParsedTable(ctx context.Context, table models.ProductTable) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Source:      SourceUpload,
		Status:      StatusCompleted,
		Records:     table,
		RecordCount: len(table),
		CreatedAt:   now,
		FinishedAt:  &now,
	}
	if table.IsEmpty() {
		job.Message = emptyResultMessage
	}

	if err := m.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

func (m *Manager) GetJob(ctx context.Context, id string) (*Job, error) {
	return m.store.Get(ctx, id)
}

func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	return m.store.List(ctx)
}

// StartWorker drains the queue until ctx is cancelled or the queue closes.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")
	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrQueueClosed) {
				m.logger.Info("job worker stopped")
				return
			}
			m.logger.Error("failed to pop task", "error", err)
			continue
		}

		m.runTask(ctx, task)
	}
}

func (m *Manager) runTask(ctx context.Context, task *queue.Task) {
	job, err := m.store.Get(ctx, task.JobID)
	if err != nil {
		m.logger.Error("failed to load job for task", "job_id", task.JobID, "error", err)
		return
	}

	started := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &started
	if err := m.store.Save(ctx, job); err != nil {
		m.logger.Error("failed to mark job running", "job_id", job.ID, "error", err)
	}

	table, scrapeErr := m.scraper.ScrapeSearch(ctx, task.SearchURL, task.MaxPages)

	finished := time.Now().UTC()
	job.FinishedAt = &finished

	switch {
	case scrapeErr != nil:
		job.Status = StatusFailed
		job.Error = scrapeErr.Error()
		m.logger.Error("scrape job failed", "job_id", job.ID, "error", scrapeErr)
	case table.IsEmpty():
		job.Status = StatusCompleted
		job.Message = emptyResultMessage
		m.logger.Warn("scrape job found no products", "job_id", job.ID)
	default:
		job.Status = StatusCompleted
		job.Records = table
		job.RecordCount = len(table)
		m.logger.Info("scrape job completed", "job_id", job.ID, "products", len(table))
	}

	if err := m.store.Save(ctx, job); err != nil {
		m.logger.Error("failed to save finished job", "job_id", job.ID, "error", err)
	}
}
