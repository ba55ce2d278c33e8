package lifecycle

import (
	"context"
	"log/slog"
	"sync"

	"clipforge/internal/logging"
)

// State is the process's coarse lifecycle position.
type State string

const (
	StateRunning      State = "running"
	StateShuttingDown State = "shutting_down"
	StateStopped      State = "stopped"
)

// Manager is the single writer of lifecycle state. Observers read State()
// or wait on Context().
type Manager struct {
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	ctx    context.Context
	cancel context.CancelFunc
}

// New derives the manager's context from parent; cancelling the parent (for
// example from signal.NotifyContext) begins shutdown the same way an explicit
// BeginShutdown call does.
func New(parent context.Context, logger *slog.Logger) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	m := &Manager{
		logger: logger.With(logging.String(logging.FieldComponent, "lifecycle")),
		state:  StateRunning,
		ctx:    ctx,
		cancel: cancel,
	}
	context.AfterFunc(parent, func() { m.BeginShutdown() })
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Running reports whether new work may still be admitted.
func (m *Manager) Running() bool {
	return m.State() == StateRunning
}

// Context is cancelled the moment shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// BeginShutdown moves to ShuttingDown and cancels the lifecycle context.
// Idempotent: a second signal does not restart the sequence. Returns true on
// the transition that actually happened.
func (m *Manager) BeginShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		return false
	}
	m.state = StateShuttingDown
	m.cancel()
	m.logger.Info("shutdown requested")
	return true
}

// Finish marks the shutdown sequence complete. Calling it while still
// Running implies an immediate stop and cancels the context as well.
func (m *Manager) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStopped {
		return
	}
	m.state = StateStopped
	m.cancel()
	m.logger.Info("stopped")
}
