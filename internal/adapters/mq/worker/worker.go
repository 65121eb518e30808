// Package worker runs sweep tasks from the queue on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/fixturedensity/internal/adapters/mq/queue"
	"github.com/okian/fixturedensity/pkg/logger"
	"github.com/okian/fixturedensity/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
	Drain(run func(queue.Task)) int
}

// Worker executes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)
	// Shutdown stops the worker after its current task.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
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

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.execute(ctx, t)
		}
	}
}

// drain runs the tasks still queued when the worker is cancelled, so no
// sweep waits on a task nobody will pick up.
func (w *InMemoryWorker) drain(ctx context.Context) {
	if n := w.queue.Drain(func(t queue.Task) { w.execute(ctx, t) }); n > 0 {
		w.logger.Debug(ctx, "drained queued tasks on cancel", logger.Int("count", n))
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// execute runs one task. A panicking task is logged and does not kill the worker.
func (w *InMemoryWorker) execute(ctx context.Context, t queue.Task) {
	start := time.Now()
	metrics.AddWorkerBusy(1)
	defer func() {
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerTaskLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "task panicked", logger.Any("panic", r))
		}
	}()
	if !t.Enqueued.IsZero() && start.Sub(t.Enqueued) > time.Second {
		w.logger.Debug(ctx, "task waited in queue", logger.Duration("wait", start.Sub(t.Enqueued)))
	}
	t.Run()
}

// Pool manages multiple workers feeding off one queue. It implements the
// advisor's executor.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below 1 uses NumCPU.
func NewPool(workerCount int, q queue.Queue) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Cancelling ctx closes the queue and,
// once every worker has returned, runs anything still buffered.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))

	go func() {
		<-ctx.Done()
		if err := p.queue.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
		for _, w := range p.workers {
			<-w.done
		}
		if n := p.queue.Drain(func(t queue.Task) { p.workers[0].execute(ctx, t) }); n > 0 {
			p.logger.Warn(ctx, "ran tasks left after cancel", logger.Int("count", n))
		}
	}()
}

// Submit enqueues a task without blocking. The caller runs the task itself
// when Submit returns an error.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	return p.queue.Enqueue(ctx, queue.Task{Run: task})
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
