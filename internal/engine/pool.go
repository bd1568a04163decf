package engine

import (
	"context"
	"sync"

	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
	"github.com/vytor/chesscoach/internal/logger"
)

// StartFunc creates a ready engine session.
type StartFunc func(ctx context.Context) (*Engine, error)

// Pool manages a fixed number of reusable engine sessions. Broken sessions
// returned to the pool are closed and replaced lazily on the next Acquire.
type Pool struct {
	start   StartFunc
	size    int
	engines chan *Engine
	log     *logger.Logger

	mu      sync.Mutex
	missing int
	closed  bool
}

// NewPool starts size engines with start.
func NewPool(ctx context.Context, size int, start StartFunc) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	log := logger.FromContext(ctx).WithPrefix("engine-pool")

	p := &Pool{
		start:   start,
		size:    size,
		engines: make(chan *Engine, size),
		log:     log,
	}

	log.Info("initializing engine pool with %d engines", size)
	for i := 0; i < size; i++ {
		e, err := start(ctx)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.engines <- e
	}
	log.Info("engine pool ready")
	return p, nil
}

// NewStockfishPool starts size engines from the binary at path.
func NewStockfishPool(ctx context.Context, path string, size int) (*Pool, error) {
	return NewPool(ctx, size, func(ctx context.Context) (*Engine, error) {
		return Start(ctx, path)
	})
}

// Acquire gets an engine from the pool, blocking until one is free.
func (p *Pool) Acquire(ctx context.Context) (*Engine, error) {
	select {
	case e, ok := <-p.engines:
		if !ok {
			return nil, apperrors.NewEvaluatorUnavailableError(errPoolClosed)
		}
		return e, nil
	default:
	}

	if p.reserveMissing() {
		p.log.Warn("replacing broken engine")
		e, err := p.start(ctx)
		if err != nil {
			p.mu.Lock()
			p.missing++
			p.mu.Unlock()
			return nil, err
		}
		return e, nil
	}

	select {
	case e, ok := <-p.engines:
		if !ok {
			return nil, apperrors.NewEvaluatorUnavailableError(errPoolClosed)
		}
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Session acquires an engine as an eval.Evaluator along with the function
// that returns it to the pool.
func (p *Pool) Session(ctx context.Context) (eval.Evaluator, func(), error) {
	e, err := p.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return e, func() { p.Release(e) }, nil
}

// Release returns an engine to the pool.
func (p *Pool) Release(e *Engine) {
	if e == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = e.Close()
		return
	}
	if e.Broken() {
		p.log.Warn("discarding broken engine %s", e.Identity())
		_ = e.Close()
		p.missing++
		return
	}
	select {
	case p.engines <- e:
	default:
		_ = e.Close()
	}
}

// Close shuts down all idle engines. Engines still checked out are closed
// when released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	p.log.Info("closing engine pool")
	close(p.engines)
	for e := range p.engines {
		_ = e.Close()
	}
}

// Available returns how many engines are currently idle.
func (p *Pool) Available() int {
	return len(p.engines)
}

func (p *Pool) reserveMissing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.missing == 0 {
		return false
	}
	p.missing--
	return true
}
