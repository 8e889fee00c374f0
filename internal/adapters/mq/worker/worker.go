// Package worker drains snapshot-save jobs and hands each key to a Flusher.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/flyerhub/internal/adapters/mq/queue"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/okian/flyerhub/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
	workerStopTimeout   = 5 * time.Second
)

// Flusher persists the store registered under key.
type Flusher interface {
	Flush(ctx context.Context, key string) error
}

// FlusherFunc adapts a function to Flusher.
type FlusherFunc func(ctx context.Context, key string) error

// Flush calls f(ctx, key).
func (f FlusherFunc) Flush(ctx context.Context, key string) error { return f(ctx, key) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue is drained or it is told to stop.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for snapshot-save jobs.
type InMemoryWorker struct {
	queue   Queue
	flusher Flusher
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, flusher Flusher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		flusher:  flusher,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns once the queue channel is closed and
// drained, ctx is canceled, or Shutdown is called. Shutdown also cancels the
// context of a flush in progress.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-runCtx.Done():
		}
	}()

	jobs := w.queue.Dequeue(runCtx)
	for {
		select {
		case <-runCtx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(runCtx, job); err != nil {
				w.logger.Error(ctx, "error flushing snapshot", logger.String("key", job.Key), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker loop and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.flusher.Flush(ctx, job.Key); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "flush_error")
		return fmt.Errorf("flush %s: %w", job.Key, err)
	}
	w.logger.Debug(ctx, "snapshot flushed",
		logger.String("key", job.Key),
		logger.Duration("queued_for", start.Sub(job.EnqueuedAt)),
	)
	return nil
}

// Pool manages multiple workers reading from one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count defaults to runtime.NumCPU().
func NewPool(workerCount int, q Queue, flusher Flusher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, flusher, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and lets workers drain what is left in it.
// Workers still busy when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), workerStopTimeout)
			_ = w.Shutdown(stopCtx)
			stop()
			timedOut++
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	if timedOut > 0 {
		return fmt.Errorf("%d workers did not drain: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
