package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Outcome classifies how a run ended. Exactly one outcome is produced per
// call.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCancelled Outcome = "cancelled"
)

// SidecarFile is a temporary input written before the process starts and
// removed when the run is over.
type SidecarFile struct {
	Path    string
	Content string
}

// Spec describes one process run: the binary, its argv, the time budget, the
// artifacts the run must produce, and scratch files to manage around it.
type Spec struct {
	Binary    string
	Args      []string
	Timeout   time.Duration
	Artifacts []string
	Sidecars  []SidecarFile
	Cleanup   []string
}

// Result is the typed outcome of one run. Artifacts is populated only on
// OutcomeSucceeded; output from any other outcome has been discarded.
type Result struct {
	Outcome    Outcome
	ExitCode   int
	StderrTail string
	Elapsed    time.Duration
	Artifacts  []string
	Err        error
}

// Options tunes a Runner. Zero values fall back to sane defaults.
type Options struct {
	KillGrace          time.Duration
	StderrTailBytes    int
	RemoveFailedOutput bool
	Logger             *slog.Logger
}

// Runner executes Specs one child process at a time per call. It is safe for
// concurrent use; each Run owns its own process handle.
type Runner struct {
	killGrace    time.Duration
	tailBytes    int
	removeFailed bool
	logger       *slog.Logger
}

const defaultKillGrace = 5 * time.Second

func NewRunner(opts Options) *Runner {
	if opts.KillGrace <= 0 {
		opts.KillGrace = defaultKillGrace
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Runner{
		killGrace:    opts.KillGrace,
		tailBytes:    opts.StderrTailBytes,
		removeFailed: opts.RemoveFailedOutput,
		logger:       opts.Logger.With(logging.String(logging.FieldComponent, "executor")),
	}
}

// Run spawns the process and waits for exit, timeout, or cancellation. The
// child runs in its own process group so terminate-then-kill reaches any
// helpers it forked.
func (r *Runner) Run(ctx context.Context, spec Spec) Result {
	started := time.Now()

	for _, sidecar := range spec.Sidecars {
		if err := os.WriteFile(sidecar.Path, []byte(sidecar.Content), 0o644); err != nil {
			return Result{
				Outcome: OutcomeFailed,
				Elapsed: time.Since(started),
				Err:     services.Wrap(services.ErrProcessFailed, "executor", "run", "write sidecar "+sidecar.Path, err),
			}
		}
	}
	defer r.removeScratch(spec)

	stderr := newTailBuffer(r.tailBytes)
	stdout := newTailBuffer(r.tailBytes)

	cmd := exec.Command(spec.Binary, spec.Args...) //nolint:gosec
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		outcome := Result{Outcome: OutcomeFailed, Elapsed: time.Since(started)}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			outcome.Err = services.Wrap(services.ErrExecutableNotFound, "executor", "run", spec.Binary, err)
		} else {
			outcome.Err = services.Wrap(services.ErrProcessFailed, "executor", "run", "start "+spec.Binary, err)
		}
		return outcome
	}

	r.logger.Debug("process started",
		logging.String("binary", spec.Binary),
		logging.Int("pid", cmd.Process.Pid),
		logging.Duration("timeout", spec.Timeout))

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case waitErr := <-waitCh:
		return r.finish(spec, cmd, waitErr, stderr, started)

	case <-ctx.Done():
		r.terminateThenKill(cmd, waitCh)
		r.discardArtifacts(spec)
		return Result{
			Outcome:    OutcomeCancelled,
			StderrTail: stderr.String(),
			Elapsed:    time.Since(started),
			Err:        services.Wrap(services.ErrCancelled, "executor", "run", spec.Binary, ctx.Err()),
		}

	case <-timeoutCh:
		r.logger.Warn("process timed out",
			logging.String("binary", spec.Binary),
			logging.Duration("timeout", spec.Timeout))
		r.terminateThenKill(cmd, waitCh)
		r.discardArtifacts(spec)
		return Result{
			Outcome:    OutcomeTimedOut,
			StderrTail: stderr.String(),
			Elapsed:    time.Since(started),
			Err:        services.Wrap(services.ErrTimeout, "executor", "run", fmt.Sprintf("%s after %s", spec.Binary, spec.Timeout), nil),
		}
	}
}

func (r *Runner) finish(spec Spec, cmd *exec.Cmd, waitErr error, stderr *tailBuffer, started time.Time) Result {
	elapsed := time.Since(started)

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if r.removeFailed {
			r.discardArtifacts(spec)
		}
		return Result{
			Outcome:    OutcomeFailed,
			ExitCode:   exitCode,
			StderrTail: stderr.String(),
			Elapsed:    elapsed,
			Err: services.Wrap(services.ErrProcessFailed, "executor", "run",
				fmt.Sprintf("%s exited with code %d: %s", spec.Binary, exitCode, stderr.String()), nil),
		}
	}

	// Exit code 0 still has to prove itself: every declared artifact must
	// exist and be non-empty.
	for _, artifact := range spec.Artifacts {
		info, err := os.Stat(artifact)
		if err != nil || info.Size() == 0 {
			r.discardArtifacts(spec)
			return Result{
				Outcome:    OutcomeFailed,
				StderrTail: stderr.String(),
				Elapsed:    elapsed,
				Err: services.Wrap(services.ErrProcessFailed, "executor", "run",
					"exit 0 but artifact missing or empty: "+artifact, err),
			}
		}
	}

	return Result{
		Outcome:   OutcomeSucceeded,
		Elapsed:   elapsed,
		Artifacts: spec.Artifacts,
	}
}

// terminateThenKill signals the process group with SIGTERM, waits up to the
// kill grace, then SIGKILLs whatever is left. It always reaps the child.
func (r *Runner) terminateThenKill(cmd *exec.Cmd, waitCh <-chan error) {
	pid := cmd.Process.Pid
	_ = unix.Kill(-pid, unix.SIGTERM)

	select {
	case <-waitCh:
		return
	case <-time.After(r.killGrace):
	}

	r.logger.Warn("process ignored SIGTERM, killing group", logging.Int("pid", pid))
	_ = unix.Kill(-pid, unix.SIGKILL)
	<-waitCh
}

func (r *Runner) discardArtifacts(spec Spec) {
	for _, artifact := range spec.Artifacts {
		if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("could not remove artifact", logging.String("path", artifact), logging.Error(err))
		}
	}
}

func (r *Runner) removeScratch(spec Spec) {
	for _, sidecar := range spec.Sidecars {
		_ = os.Remove(sidecar.Path)
	}
	for _, path := range spec.Cleanup {
		_ = os.Remove(path)
	}
}
