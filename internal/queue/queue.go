package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("queue is closed")

// Task is one queued scrape run.
type Task struct {
	JobID     string
	SearchURL string
	MaxPages  int
	CreatedAt time.Time
}

// Queue hands scrape tasks to the job worker in FIFO order.
type Queue interface {
	Push(task *Task) error
	Pop(ctx context.Context) (*Task, error)
	Size() int
	Close() error
}

type InMemoryQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []*Task
	closed bool
}

func NewInMemoryQueue() *InMemoryQueue {
	q := &InMemoryQueue{tasks: make([]*Task, 0)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *InMemoryQueue) Push(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	q.cond.Signal()

	return nil
}

// Pop blocks until a task is available, the queue is closed, or ctx is done.
func (q *InMemoryQueue) Pop(ctx context.Context) (*Task, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	if len(q.tasks) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrQueueClosed
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]

	return task, nil
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()

	return nil
}
