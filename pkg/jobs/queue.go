package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
var ErrQueueFull = errors.New("queue full")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	// OnGiveUp is called once a job has failed MaxRetries+1 times or could not be requeued.
	OnGiveUp func(Job, error)
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	onGiveUp   func(Job, error)

	jobs     chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight sync.WaitGroup
	retries  sync.WaitGroup
	mu       sync.Mutex
	started  bool
	closing  bool
}

// NewQueue builds a new queue with the provided handler. A zero MaxRetries
// disables retries.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.OnGiveUp == nil {
		cfg.OnGiveUp = func(Job, error) {}
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		onGiveUp:   cfg.OnGiveUp,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop rejects new jobs, waits for queued and running jobs until ctx expires,
// then cancels the workers. Pending retries and still-buffered jobs are handed
// to OnGiveUp.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started || q.closing {
		q.mu.Unlock()
		return
	}
	q.closing = true
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		q.logger.Sugar().Warnw("queue stop timed out", "queue", q.name, "pending", len(q.jobs))
	}

	q.cancel()
	q.wg.Wait()
	q.retries.Wait()
	q.abandonBuffered()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// abandonBuffered gives up on jobs the workers never picked up. Workers and
// retry timers have exited, so nothing else reads or writes the buffer.
func (q *Queue) abandonBuffered() {
	for {
		select {
		case job := <-q.jobs:
			q.onGiveUp(job, fmt.Errorf("queue %s stopped before job ran", q.name))
			q.inflight.Done()
		default:
			return
		}
	}
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	return q.push(job, true)
}

// TryEnqueue pushes a job without blocking and returns ErrQueueFull when the buffer is full.
func (q *Queue) TryEnqueue(job Job) error {
	return q.push(job, false)
}

func (q *Queue) push(job Job, wait bool) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	if q.closing && job.Attempt == 0 {
		q.mu.Unlock()
		return fmt.Errorf("queue %s stopping", q.name)
	}
	ctx := q.ctx
	q.inflight.Add(1)
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	if !wait {
		select {
		case q.jobs <- job:
			return nil
		default:
			q.inflight.Done()
			return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
		}
	}

	select {
	case <-ctx.Done():
		q.inflight.Done()
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	defer q.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			q.handleFailure(job, fmt.Errorf("job panicked: %v", r))
		}
	}()
	if err := q.handler(q.ctx, job); err != nil {
		q.logger.Sugar().Debugw("job failed", "queue", q.name, "worker", workerID, "job_id", job.ID, "error", err)
		q.handleFailure(job, err)
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		q.onGiveUp(job, err)
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	// The retry counts as in flight so Stop waits for it.
	q.inflight.Add(1)
	q.retries.Add(1)
	go func(j Job) {
		defer q.retries.Done()
		defer q.inflight.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.onGiveUp(j, q.ctx.Err())
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
				q.onGiveUp(j, err)
			}
		}
	}(job)
}
