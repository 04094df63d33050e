package actuator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolSaturated is returned when the worker pool has no free slot.
var ErrPoolSaturated = errors.New("actuator: worker pool saturated")

// ErrPoolClosed is returned when submitting after Shutdown.
var ErrPoolClosed = errors.New("actuator: worker pool closed")

// Pool runs actuator side effects in bounded background goroutines so a
// slow relay or stuck servo cannot pile up unbounded work behind the
// conversation loop.
type Pool struct {
	logger *slog.Logger
	slots  chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given concurrency limit.
func NewPool(limit int, logger *slog.Logger) *Pool {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		logger: logger.With("component", "actuator.pool"),
		slots:  make(chan struct{}, limit),
	}
}

// Go runs fn in the background. Errors from fn are logged, not returned:
// actuator failures never abort a conversation turn. Go itself fails only
// when the pool is saturated or closed.
func (p *Pool) Go(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	select {
	case p.slots <- struct{}{}:
	default:
		p.mu.Unlock()
		p.logger.Warn("dropping actuator task", "task", name)
		return ErrPoolSaturated
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("actuator task panicked", "task", name, "panic", r)
			}
			<-p.slots
			p.wg.Done()
		}()
		if err := fn(ctx); err != nil {
			p.logger.Warn("actuator task failed", "task", name, "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting work and waits for in-flight tasks, giving up
// when the context expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
