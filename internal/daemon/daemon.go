package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipforge/internal/config"
	"clipforge/internal/engine"
	"clipforge/internal/logging"
)

// Daemon wraps an engine with a single-instance lock. Exactly one daemon may
// hold the lock for a given log directory at a time.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	engine  *engine.Engine
	running atomic.Bool
}

// New constructs a daemon. The engine is not built until Start so a locked
// instance fails fast without touching the job database.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "clipforge.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "daemon")),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and bootstraps the engine. ctx drives the
// engine lifecycle: cancelling it begins shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge instance is already running")
	}

	eng, err := engine.Bootstrap(ctx, d.cfg, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.engine = eng
	d.running.Store(true)
	d.logger.Info("started", logging.String("lock", d.lockPath))
	return nil
}

// Engine returns the running engine. Valid only between Start and Stop.
func (d *Daemon) Engine() *engine.Engine {
	return d.engine
}

// Stop shuts the engine down and releases the lock.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.Load() {
		return
	}
	d.engine.Shutdown(ctx)
	if err := d.engine.Close(); err != nil {
		d.logger.Warn("close job database", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.engine = nil
	d.running.Store(false)
	d.logger.Info("stopped")
}

// Run starts the daemon and blocks until ctx is cancelled, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop(context.WithoutCancel(ctx))
	return nil
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }
