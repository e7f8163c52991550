// Package jobs runs the outbound delivery workers. Notification flows hand
// email and SMS deliveries to an in-memory queue here, so a slow or failing
// provider never blocks the HTTP request that produced the notification.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one pending delivery. Kind names the delivery channel ("email",
// "sms") and Payload carries the provider message for that channel.
type Job struct {
	ID       string
	Kind     string
	Payload  any
	Attempt  int
	Enqueued time.Time
}

// Handler carries one delivery to its provider.
type Handler func(context.Context, Job) error

// Options tune the delivery worker pool.
type Options struct {
	Workers    int
	Backlog    int
	MaxRetries int
	RetryAfter time.Duration
	Logger     *zap.Logger
}

// Queue fans deliveries out to a fixed pool of workers. Failed deliveries
// are requeued after a delay until the retry budget runs out.
type Queue struct {
	name    string
	handler Handler
	opts    Options

	pending chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue builds a stopped queue. Zero option fields fall back to defaults
// sized for a single school's delivery volume.
func NewQueue(name string, handler Handler, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backlog <= 0 {
		opts.Backlog = opts.Workers * 8
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		opts:    opts,
		pending: make(chan Job, opts.Backlog),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.runWorker(i + 1)
	}
	q.running = true
	q.opts.Logger.Sugar().Infow("delivery workers started", "queue", q.name, "workers", q.opts.Workers)
}

// Stop cancels the workers and waits until every one has exited.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.opts.Logger.Sugar().Infow("delivery workers stopped", "queue", q.name)
}

// Enqueue hands a delivery to the pool. Blocks while the backlog is full
// and fails once the queue is stopped.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	running := q.running
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("delivery queue %s is not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("delivery queue %s stopped: %w", q.name, ctx.Err())
	case q.pending <- job:
		return nil
	}
}

func (q *Queue) runWorker(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// retry requeues a failed delivery after the backoff delay, or drops it once
// the retry budget is spent. The timer runs off the worker goroutine so the
// pool keeps draining while a delivery waits.
func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.opts.MaxRetries {
		q.opts.Logger.Sugar().Errorw("delivery dropped after retries",
			"queue", q.name, "job_id", job.ID, "kind", job.Kind, "error", cause)
		return
	}
	q.opts.Logger.Sugar().Warnw("delivery failed, will retry",
		"queue", q.name, "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", cause)

	go func(j Job) {
		timer := time.NewTimer(q.opts.RetryAfter)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.opts.Logger.Sugar().Errorw("failed to requeue delivery",
					"queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
