package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrJobNotFound = errors.New("job not found")

const (
	jobKeyPrefix = "lentil:jobs:"
	jobIndexKey  = "lentil:jobs:index"

	// DefaultJobTTL bounds how long finished jobs stay retrievable. Job
	// state is run bookkeeping, not a product archive; every scrape
	// rebuilds its table from scratch.
	DefaultJobTTL = 24 * time.Hour
)

// Store keeps ephemeral job state for the lifetime of a run.
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore is the default single-process store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *job
	s.jobs[job.ID] = &snapshot
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		out = append(out, &snapshot)
	}

	sortJobs(out)
	return out, nil
}

// RedisStore keeps job state in Redis with a TTL, for deployments where the
// API and the worker should survive process restarts within a run window.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, data, s.ttl)
	pipe.SAdd(ctx, jobIndexKey, job.ID)
	pipe.Expire(ctx, jobIndexKey, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Job, error) {
	ids, err := s.client.SMembers(ctx, jobIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			// Expired job still referenced by the index.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}

	sortJobs(out)
	return out, nil
}

func sortJobs(jobs []*Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
