// Package jobs runs consolidation work off the request path. Uploading
// and triggering return as soon as the exports are staged; the queue's
// workers carry each run through the read, reconcile, and persist
// pipeline while its state stays pollable.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotStarted is returned when a run is enqueued before the worker
// pool is up.
var ErrNotStarted = errors.New("consolidation queue not started")

// Job identifies one consolidation run: the reporting date whose staged
// exports should be processed.
type Job struct {
	ID       string
	Date     string
	Attempt  int
	Enqueued time.Time
}

// Handler executes a consolidation run.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool and its retry policy.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue feeds consolidation runs to a fixed pool of workers over a
// buffered channel. Runs for distinct dates may execute concurrently;
// the idempotent persistence layer keeps a retried date safe.
type Queue struct {
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.SugaredLogger

	runs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue that hands each run to handler.
func NewQueue(handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.Sugar(),
		runs:       make(chan Job, cfg.BufferSize),
	}
}

// Start brings up the worker pool. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.started = true
	q.logger.Infow("consolidation queue started", "workers", q.workers)
}

// Stop cancels in-flight runs and waits for the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Infow("consolidation queue stopped")
}

// Enqueue hands a run to the worker pool, blocking while the buffer is
// full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.runs <- job:
		return nil
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.runs:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// retry re-enqueues a failed run after the delay until its attempts are
// exhausted. The sleep happens off the worker goroutine so the pool
// keeps draining other dates.
func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Errorw("consolidation run exhausted retries", "job_id", job.ID, "date", job.Date, "error", err)
		return
	}
	q.logger.Warnw("consolidation run failed, retrying", "job_id", job.ID, "date", job.Date, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Errorw("failed to requeue consolidation run", "job_id", j.ID, "date", j.Date, "error", err)
			}
		}
	}(job)
}
