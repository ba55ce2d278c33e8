package pool

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is a handle's coarse position in its lifecycle.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
)

// Handle is the caller's future for one submitted job.
type Handle struct {
	id     uuid.UUID
	pool   *Pool
	job    Job
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// ID returns the job's identifier.
func (h *Handle) ID() uuid.UUID { return h.id }

// State reports the job's current lifecycle position.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait blocks until the job finishes or ctx expires. The job's own error is
// returned unchanged; a wait cut short returns ctx.Err().
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the job finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the job's error once it has finished, nil before that.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Cancel removes the job from the queue if it has not started, or cancels
// its context if it is running. Cancelling a finished job is a no-op.
func (h *Handle) Cancel() {
	h.pool.cancelHandle(h)
}

func (h *Handle) setState(state State) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}

// finish records the terminal error exactly once and releases waiters.
func (h *Handle) finish(err error) {
	h.mu.Lock()
	if h.state == StateDone {
		h.mu.Unlock()
		return
	}
	h.state = StateDone
	h.err = err
	h.mu.Unlock()

	h.cancel()
	close(h.done)
}
