// Package async runs best-effort background calls on a small worker pool.
// Tasks never report back to the caller; their Result is logged and dropped.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
)

// Task is one best-effort unit of work.
type Task func(ctx context.Context) common.Result

var (
	ErrQueueFull = errors.New("async: queue full")
	ErrClosed    = errors.New("async: runner is shut down")
)

type Runner struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan queued
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type queued struct {
	name string
	ctx  context.Context
	task Task
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.ch = make(chan queued, n)
		}
	}
}

func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger:  logger,
		workers: 2,
		timeout: common.DefaultRemoteTimeout,
		ch:      make(chan queued, 64),
	}
	for _, o := range opts {
		o(r)
	}
	r.start()
	return r
}

func (r *Runner) start() {
	r.once.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go func(workerID int) {
				defer r.wg.Done()
				r.logger.Debug("async.worker.started", "worker_id", workerID)
				for q := range r.ch {
					r.run(workerID, q)
				}
				r.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (r *Runner) run(workerID int, q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res := q.task(ctx)
	if res.Op == "" {
		res.Op = q.name
	}
	log := r.logger.With("worker_id", workerID, "task", q.name, "elapsed_ms", time.Since(start).Milliseconds())
	if id := common.RequestIDFromContext(q.ctx); id != "" {
		log = log.With("req_id", id)
	}
	if res.OK() {
		log.Debug("async.task.done")
		return
	}
	res.Discard(log)
}

// Enqueue schedules task without blocking. The task runs with the values of
// ctx but not its cancellation, so it may outlive the caller. A full queue
// drops the task.
func (r *Runner) Enqueue(ctx context.Context, name string, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("async.enqueue.closed", "task", name)
		return ErrClosed
	}
	select {
	case r.ch <- queued{name: name, ctx: context.WithoutCancel(ctx), task: task}:
		r.logger.Debug("async.enqueue", "task", name)
		return nil
	default:
		r.logger.Warn("async.enqueue.dropped", "task", name, "reason", "queue full")
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or for
// ctx to end.
func (r *Runner) Shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); r.wg.Wait() }()

	select {
	case <-ctx.Done():
		r.logger.Warn("async.shutdown.interrupted")
	case <-done:
		r.logger.Info("async.shutdown.drained")
	}
}
