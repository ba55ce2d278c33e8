package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/executor"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/ffprobe"
	"clipforge/internal/lifecycle"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/pool"
	"clipforge/internal/queue"
	"clipforge/internal/services"
)

// Prober inspects a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (media.FileInfo, error)
}

// Runner executes a single process spec to completion.
type Runner interface {
	Run(ctx context.Context, spec executor.Spec) executor.Result
}

// Options wires an Engine from its collaborators. Config, FFmpegPath,
// Prober, Runner, and Store are required.
type Options struct {
	Config     *config.Config
	Logger     *slog.Logger
	FFmpegPath string
	Prober     Prober
	Runner     Runner
	Store      *queue.Store
}

// Engine is the orchestration facade. All operation submissions go through
// Submit, which owns record bookkeeping and admission control.
type Engine struct {
	cfg     *config.Config
	logger  *slog.Logger
	builder *ffmpeg.Builder
	prober  Prober
	runner  Runner
	pool    *pool.Pool
	store   *queue.Store
	life    *lifecycle.Manager

	ffmpegPath string
	jobTimeout time.Duration
}

// New constructs an engine from pre-built collaborators. parent drives the
// lifecycle: cancelling it begins shutdown.
func New(parent context.Context, opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("engine requires a config")
	}
	if opts.FFmpegPath == "" || opts.Prober == nil || opts.Runner == nil || opts.Store == nil {
		return nil, errors.New("engine requires ffmpeg path, prober, runner, and store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	cfg := opts.Config
	e := &Engine{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "engine")),
		builder:    ffmpeg.New(cfg.Paths.OutputDir, cfg.Paths.WorkDir, cfg.Workers.Count),
		prober:     opts.Prober,
		runner:     opts.Runner,
		pool:       pool.New(cfg.Workers.Count, cfg.Workers.QueueCapacity, logger),
		store:      opts.Store,
		life:       lifecycle.New(parent, logger),
		ffmpegPath: opts.FFmpegPath,
		jobTimeout: time.Duration(cfg.Workers.JobTimeoutSeconds) * time.Second,
	}
	return e, nil
}

// Bootstrap builds a production engine: it verifies the external tools,
// ensures the configured directories, and opens the job database.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires a config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	ffmpegTool, ffprobeTool, err := deps.Check(ctx, cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("tools verified",
			logging.String("ffmpeg", ffmpegTool.Version),
			logging.String("ffprobe", ffprobeTool.Version))
	}

	store, err := queue.Open(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
	if err != nil {
		return nil, err
	}

	probeTimeout := time.Duration(cfg.Tools.VersionCheckSeconds) * time.Second
	runner := executor.NewRunner(executor.Options{
		KillGrace:          time.Duration(cfg.Workers.KillGraceSeconds) * time.Second,
		StderrTailBytes:    cfg.Workers.StderrTailKiB * 1024,
		RemoveFailedOutput: cfg.Workers.RemoveFailedOutput,
		Logger:             logger,
	})

	eng, err := New(ctx, Options{
		Config:     cfg,
		Logger:     logger,
		FFmpegPath: ffmpegTool.Path,
		Prober:     ffprobe.New(ffprobeTool.Path, probeTimeout, logger),
		Runner:     runner,
		Store:      store,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return eng, nil
}

// Job is a submitted operation. The record under ID outlives the handle.
type Job struct {
	ID     string
	Kind   ffmpeg.Kind
	handle *pool.Handle
}

// Wait blocks until the job reaches a terminal state or ctx is cancelled.
func (j *Job) Wait(ctx context.Context) error { return j.handle.Wait(ctx) }

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.handle.Done() }

// Err returns the job's terminal error, nil before completion or on success.
func (j *Job) Err() error { return j.handle.Err() }

// Cancel requests cancellation; a queued job is dropped, a running one is
// terminated.
func (j *Job) Cancel() { j.handle.Cancel() }

// Submit validates and enqueues one operation. inputPath is recorded in the
// job history and probed first when probe_before_submit is enabled.
func (e *Engine) Submit(ctx context.Context, inputPath string, req ffmpeg.Request) (*Job, error) {
	if req == nil {
		return nil, services.Wrap(services.ErrInvalidParameters, "engine", "submit", "nil request", nil)
	}
	if !e.life.Running() {
		return nil, services.Wrap(services.ErrShuttingDown, "engine", "submit", string(req.Kind()), nil)
	}

	invocations, err := e.builder.Build(req)
	if err != nil {
		return nil, err
	}

	if e.cfg.Workers.ProbeBeforeSubmit && inputPath != "" {
		if _, err := e.prober.Probe(ctx, inputPath); err != nil {
			return nil, err
		}
	}

	id := uuid.New().String()
	paramsJSON, err := json.Marshal(req)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidParameters, "engine", "submit", "encode parameters", err)
	}

	if _, err := e.store.Insert(ctx, id, string(req.Kind()), inputPath, primaryOutput(invocations), string(paramsJSON)); err != nil {
		return nil, err
	}

	kind := req.Kind()
	handle, err := e.pool.Submit(func(jobCtx context.Context) error {
		return e.runJob(jobCtx, id, kind, invocations)
	})
	if err != nil {
		_ = e.store.MarkFinished(context.WithoutCancel(ctx), id, queue.StatusFailed, services.Message(err), "")
		return nil, err
	}

	e.logger.Info("job submitted",
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldOperation, string(kind)),
		logging.Int("invocations", len(invocations)))
	return &Job{ID: id, Kind: kind, handle: handle}, nil
}

func (e *Engine) runJob(ctx context.Context, id string, kind ffmpeg.Kind, invocations []ffmpeg.Invocation) error {
	logger := e.logger.With(
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldOperation, string(kind)))
	ctx = services.WithJobID(services.WithOperation(ctx, string(kind)), id)

	if err := e.store.MarkRunning(context.WithoutCancel(ctx), id); err != nil {
		logger.Warn("could not mark record running", logging.Error(err))
	}

	started := time.Now()
	var artifacts []string
	for i, invocation := range invocations {
		spec := executor.Spec{
			Binary:    e.ffmpegPath,
			Args:      invocation.Args,
			Timeout:   e.jobTimeout,
			Artifacts: invocation.Artifacts,
			Sidecars:  sidecarFiles(invocation.Sidecars),
			Cleanup:   invocation.Cleanup,
		}
		result := e.runner.Run(ctx, spec)
		if result.Outcome != executor.OutcomeSucceeded {
			logger.Warn("job failed",
				logging.Int("invocation", i),
				logging.String("outcome", string(result.Outcome)),
				logging.Error(result.Err))
			e.finishRecord(ctx, id, result.Outcome, result.Err, nil)
			return result.Err
		}
		artifacts = append(artifacts, result.Artifacts...)
	}

	logger.Info("job completed",
		logging.Int("artifacts", len(artifacts)),
		logging.Duration("elapsed", time.Since(started)))
	e.finishRecord(ctx, id, executor.OutcomeSucceeded, nil, artifacts)
	return nil
}

func (e *Engine) finishRecord(ctx context.Context, id string, outcome executor.Outcome, cause error, artifacts []string) {
	status := statusForOutcome(outcome)
	message := ""
	if cause != nil {
		message = services.Message(cause)
	}
	artifactsJSON := ""
	if len(artifacts) > 0 {
		if encoded, err := json.Marshal(artifacts); err == nil {
			artifactsJSON = string(encoded)
		}
	}
	if err := e.store.MarkFinished(context.WithoutCancel(ctx), id, status, message, artifactsJSON); err != nil {
		e.logger.Warn("could not mark record finished",
			logging.String(logging.FieldJobID, id),
			logging.Error(err))
	}
}

func statusForOutcome(outcome executor.Outcome) queue.Status {
	switch outcome {
	case executor.OutcomeSucceeded:
		return queue.StatusCompleted
	case executor.OutcomeTimedOut:
		return queue.StatusTimedOut
	case executor.OutcomeCancelled:
		return queue.StatusCancelled
	default:
		return queue.StatusFailed
	}
}

func sidecarFiles(sidecars []ffmpeg.Sidecar) []executor.SidecarFile {
	if len(sidecars) == 0 {
		return nil
	}
	files := make([]executor.SidecarFile, len(sidecars))
	for i, sidecar := range sidecars {
		files[i] = executor.SidecarFile{Path: sidecar.Path, Content: sidecar.Content}
	}
	return files
}

// primaryOutput picks the recorded output name: the base of the first
// artifact any invocation produces.
func primaryOutput(invocations []ffmpeg.Invocation) string {
	for _, invocation := range invocations {
		if len(invocation.Artifacts) > 0 {
			return filepath.Base(invocation.Artifacts[0])
		}
	}
	return ""
}

// Probe inspects a file without submitting work.
func (e *Engine) Probe(ctx context.Context, path string) (media.FileInfo, error) {
	return e.prober.Probe(ctx, path)
}

// Records returns job history rows, optionally filtered by status.
func (e *Engine) Records(ctx context.Context, statuses ...queue.Status) ([]*queue.Record, error) {
	return e.store.List(ctx, statuses...)
}

// Record returns a single job history row, nil when unknown.
func (e *Engine) Record(ctx context.Context, id string) (*queue.Record, error) {
	return e.store.GetByID(ctx, id)
}

// ClearHistory removes terminal records, or all records when all is set.
func (e *Engine) ClearHistory(ctx context.Context, all bool) (int64, error) {
	if all {
		return e.store.Clear(ctx)
	}
	return e.store.ClearFinished(ctx)
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State   lifecycle.State
	Active  int
	Queued  int
	History queue.Summary
	DBPath  string
}

// Status reports the lifecycle state, pool occupancy, and history counts.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	summary, err := e.store.Summarize(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:   e.life.State(),
		Active:  e.pool.Active(),
		Queued:  e.pool.Queued(),
		History: summary,
		DBPath:  e.store.Path(),
	}, nil
}

// Running reports whether new submissions are still admitted.
func (e *Engine) Running() bool { return e.life.Running() }

// Shutdown stops admissions and winds the pool down. With drain_on_shutdown
// set, queued jobs run to completion within the shutdown budget; otherwise
// they are cancelled immediately. Running jobs always get the budget before
// their processes are terminated.
func (e *Engine) Shutdown(ctx context.Context) {
	e.life.BeginShutdown()

	if deadline := time.Duration(e.cfg.Workers.ShutdownSeconds) * time.Second; deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), deadline)
		defer cancel()
	}
	e.pool.Shutdown(ctx, !e.cfg.Workers.DrainOnShutdown)
	e.life.Finish()
}

// Close releases the job database. Call after Shutdown.
func (e *Engine) Close() error {
	return e.store.Close()
}
