package pool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Job is one unit of work. The context is cancelled when the job is
// cancelled individually or the pool shuts down; the job must return
// promptly after that.
type Job func(ctx context.Context) error

// Pool runs at most workers jobs at a time, queueing the rest in FIFO
// order.
type Pool struct {
	workers  int
	capacity int
	logger   *slog.Logger

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Handle
	running  map[uuid.UUID]*Handle
	shutdown bool
}

// New builds a pool with the given concurrency bound. capacity limits the
// pending queue; zero means unbounded.
func New(workers, capacity int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers:    workers,
		capacity:   capacity,
		logger:     logger.With(logging.String(logging.FieldComponent, "pool")),
		baseCtx:    ctx,
		cancelBase: cancel,
		running:    make(map[uuid.UUID]*Handle),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit queues a job and returns immediately with its handle. After
// shutdown has begun every submission fails with ErrShuttingDown.
func (p *Pool) Submit(job Job) (*Handle, error) {
	if job == nil {
		return nil, services.Wrap(services.ErrInvalidParameters, "pool", "submit", "nil job", nil)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return nil, services.Wrap(services.ErrShuttingDown, "pool", "submit", "pool is shutting down", nil)
	}
	if p.capacity > 0 && len(p.queue) >= p.capacity {
		return nil, services.Wrap(services.ErrQueueFull, "pool", "submit", "pending queue at capacity", nil)
	}

	ctx, cancel := context.WithCancel(p.baseCtx)
	h := &Handle{
		id:     uuid.New(),
		pool:   p,
		job:    job,
		ctx:    ctx,
		cancel: cancel,
		state:  StateQueued,
		done:   make(chan struct{}),
	}
	p.queue = append(p.queue, h)
	p.logger.Debug("job queued", logging.String(logging.FieldJobID, h.id.String()), logging.Int("queued", len(p.queue)))
	p.dispatchLocked()
	return h, nil
}

// dispatchLocked starts queued jobs while worker slots are free. Callers
// hold p.mu.
func (p *Pool) dispatchLocked() {
	for len(p.queue) > 0 && len(p.running) < p.workers {
		h := p.queue[0]
		p.queue = p.queue[1:]
		h.setState(StateRunning)
		p.running[h.id] = h

		go func(h *Handle) {
			err := h.job(h.ctx)
			if err == nil && h.ctx.Err() != nil {
				err = services.Wrap(services.ErrCancelled, "pool", "run", h.id.String(), h.ctx.Err())
			}

			p.mu.Lock()
			delete(p.running, h.id)
			h.finish(err)
			p.dispatchLocked()
			p.cond.Broadcast()
			p.mu.Unlock()
		}(h)
	}
}

// cancelHandle removes a queued job outright or signals a running one.
func (p *Pool) cancelHandle(h *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, queued := range p.queue {
		if queued == h {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			h.finish(services.Wrap(services.ErrCancelled, "pool", "cancel", h.id.String(), nil))
			p.cond.Broadcast()
			return
		}
	}
	// Running or already done: cancelling the context is enough either way.
	h.cancel()
}

// Active reports how many jobs are currently running.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}

// Queued reports how many jobs are waiting for a slot.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Shutdown stops admissions and brings the pool to rest. With immediate set,
// queued jobs are cancelled without starting; otherwise the queue drains as
// slots free up. Active jobs get until ctx expires to finish naturally, then
// their contexts are cancelled. When Shutdown returns the active set is
// empty. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context, immediate bool) {
	p.mu.Lock()
	p.shutdown = true
	if immediate {
		p.cancelQueuedLocked()
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.mu.Lock()
		for len(p.queue) > 0 || len(p.running) > 0 {
			p.cond.Wait()
		}
		p.mu.Unlock()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		p.logger.Warn("shutdown grace expired, cancelling active jobs")
		p.mu.Lock()
		p.cancelQueuedLocked()
		for _, h := range p.running {
			h.cancel()
		}
		p.mu.Unlock()
		<-drained
	}
	p.cancelBase()
	p.logger.Info("pool stopped")
}

func (p *Pool) cancelQueuedLocked() {
	for _, h := range p.queue {
		h.finish(services.Wrap(services.ErrCancelled, "pool", "shutdown", h.id.String(), nil))
	}
	p.queue = nil
	p.cond.Broadcast()
}
