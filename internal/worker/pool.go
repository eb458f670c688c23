// Package worker provides a bounded pool of goroutines for running
// video generation jobs concurrently. The pool size is configured from
// settings at startup and stays fixed for the life of the process.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("worker pool is shut down")

// Pool runs submitted work on a fixed number of goroutines. Submit
// blocks until a worker picks the unit up, so callers naturally slow
// down when every worker is busy instead of growing an unbounded queue.
type Pool struct {
	work   chan func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts size worker goroutines. A size of zero or less falls
// back to one worker.
func NewPool(size int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		logger.Warn("invalid worker pool size, using default",
			"specified_size", size,
			"default_size", 1)
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		work:   make(chan func(ctx context.Context)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Info("worker pool started", "size", size)
	return p
}

// Submit hands a unit of work to the pool, blocking until a worker is
// free. The caller's ctx bounds the wait; the pool's own context is
// passed to the unit when it runs.
func (p *Pool) Submit(ctx context.Context, unit func(ctx context.Context)) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}

	select {
	case p.work <- unit:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels the pool context and returns without waiting for
// in-flight work. Interrupted jobs are picked up by startup recovery on
// the next run.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down, in-flight work may be interrupted")
	p.cancel()
}

// Wait blocks until every worker goroutine has exited. Only meaningful
// after Shutdown.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case unit := <-p.work:
			p.run(unit, id)
		}
	}
}

// run executes a single unit, isolating panics so one bad job does not
// take a worker down with it.
func (p *Pool) run(unit func(ctx context.Context), id int) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered from panic",
				"worker_id", id,
				"panic", r)
		}
	}()

	unit(p.ctx)
}
