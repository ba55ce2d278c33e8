package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/engine"
	"clipforge/internal/executor"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
	"clipforge/internal/queue"
	"clipforge/internal/services"
)

type fakeProber struct {
	info media.FileInfo
	err  error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (media.FileInfo, error) {
	if p.err != nil {
		return media.FileInfo{}, p.err
	}
	info := p.info
	info.Path = path
	return info, nil
}

type fakeRunner struct {
	mu      sync.Mutex
	specs   []executor.Spec
	results []executor.Result
}

func (r *fakeRunner) Run(ctx context.Context, spec executor.Spec) executor.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
	if len(r.results) > 0 {
		result := r.results[0]
		r.results = r.results[1:]
		return result
	}
	return executor.Result{Outcome: executor.OutcomeSucceeded, Artifacts: spec.Artifacts}
}

func (r *fakeRunner) recorded() []executor.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]executor.Spec(nil), r.specs...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Workers.Count = 2
	cfg.Workers.ProbeBeforeSubmit = false
	return &cfg
}

func newEngine(t *testing.T, cfg *config.Config, prober engine.Prober, runner engine.Runner) *engine.Engine {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	eng, err := engine.New(context.Background(), engine.Options{
		Config:     cfg,
		FFmpegPath: "/usr/bin/ffmpeg",
		Prober:     prober,
		Runner:     runner,
		Store:      store,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() {
		eng.Shutdown(context.Background())
		_ = eng.Close()
	})
	return eng
}

func TestSubmitRunsJobAndRecordsCompletion(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	eng := newEngine(t, cfg, &fakeProber{}, runner)
	ctx := context.Background()

	job, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.Trim{
		Input:      "/media/movie.mp4",
		OutputName: "movie_trimmed",
		Start:      5 * time.Second,
		End:        15 * time.Second,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := job.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	specs := runner.recorded()
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].Binary != "/usr/bin/ffmpeg" {
		t.Fatalf("binary = %q", specs[0].Binary)
	}

	rec, err := eng.Record(ctx, job.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec == nil || rec.Status != queue.StatusCompleted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Kind != string(ffmpeg.KindTrim) || rec.InputPath != "/media/movie.mp4" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !strings.Contains(rec.ArtifactsJSON, "movie_trimmed.mp4") {
		t.Fatalf("artifacts = %q", rec.ArtifactsJSON)
	}
}

func TestSubmitRejectsInvalidRequestWithoutRecord(t *testing.T) {
	cfg := testConfig(t)
	eng := newEngine(t, cfg, &fakeProber{}, &fakeRunner{})
	ctx := context.Background()

	_, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.Trim{
		Input:      "/media/movie.mp4",
		OutputName: "bad",
		Start:      15 * time.Second,
		End:        5 * time.Second,
	})
	if !errors.Is(err, services.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}

	records, err := eng.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("rejected submit should leave no record, got %d", len(records))
	}
}

func TestSubmitAfterShutdownReturnsShuttingDown(t *testing.T) {
	cfg := testConfig(t)
	eng := newEngine(t, cfg, &fakeProber{}, &fakeRunner{})
	ctx := context.Background()

	eng.Shutdown(ctx)

	_, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.Trim{
		Input:      "/media/movie.mp4",
		OutputName: "movie",
		Start:      0,
		End:        5 * time.Second,
	})
	if !errors.Is(err, services.ErrShuttingDown) {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestFailedRunMarksRecordFailed(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{results: []executor.Result{{
		Outcome: executor.OutcomeFailed,
		Err:     services.Wrap(services.ErrProcessFailed, "executor", "run", "exit 1", nil),
	}}}
	eng := newEngine(t, cfg, &fakeProber{}, runner)
	ctx := context.Background()

	job, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.RemoveAudio{
		Input:      "/media/movie.mp4",
		OutputName: "movie_silent",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := job.Wait(ctx); !errors.Is(err, services.ErrProcessFailed) {
		t.Fatalf("expected ErrProcessFailed, got %v", err)
	}

	rec, err := eng.Record(ctx, job.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Status != queue.StatusFailed || rec.ErrorMessage == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestTimedOutRunMarksRecordTimedOut(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{results: []executor.Result{{
		Outcome: executor.OutcomeTimedOut,
		Err:     services.Wrap(services.ErrTimeout, "executor", "run", "ffmpeg after 1h", nil),
	}}}
	eng := newEngine(t, cfg, &fakeProber{}, runner)
	ctx := context.Background()

	job, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.RemoveChapters{
		Input:      "/media/movie.mp4",
		OutputName: "movie_flat",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = job.Wait(ctx)

	rec, err := eng.Record(ctx, job.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Status != queue.StatusTimedOut {
		t.Fatalf("status = %s", rec.Status)
	}
}

func TestMultiInvocationJobStopsAtFirstFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{results: []executor.Result{
		{Outcome: executor.OutcomeSucceeded},
		{Outcome: executor.OutcomeFailed, Err: services.Wrap(services.ErrProcessFailed, "executor", "run", "exit 1", nil)},
	}}
	eng := newEngine(t, cfg, &fakeProber{}, runner)
	ctx := context.Background()

	job, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.Compress{
		Input:        "/media/movie.mp4",
		OutputName:   "movie",
		Formats:      []ffmpeg.Format{ffmpeg.FormatMP4},
		SourceHeight: 480,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = job.Wait(ctx)

	if got := len(runner.recorded()); got != 2 {
		t.Fatalf("expected run to stop after the failing invocation, got %d runs", got)
	}
	rec, _ := eng.Record(ctx, job.ID)
	if rec.Status != queue.StatusFailed {
		t.Fatalf("status = %s", rec.Status)
	}
}

func probeInfoWithTracks() media.FileInfo {
	return media.FileInfo{
		Container: "matroska",
		Duration:  10 * time.Minute,
		Streams: []media.StreamInfo{
			{Index: 0, Kind: media.StreamVideo, Codec: "h264"},
			{Index: 1, Kind: media.StreamAudio, Codec: "aac", Language: "eng", Default: true},
			{Index: 2, Kind: media.StreamAudio, Codec: "ac3", Language: "fra"},
			{Index: 3, Kind: media.StreamSubtitle, Codec: "subrip", Language: "deu"},
		},
	}
}

func TestChooseAudioResolvesLanguageToPosition(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	eng := newEngine(t, cfg, &fakeProber{info: probeInfoWithTracks()}, runner)
	ctx := context.Background()

	job, err := eng.ChooseAudio(ctx, "/media/movie.mkv", "movie_fr.mkv", engine.ByLanguage("fr"), true)
	if err != nil {
		t.Fatalf("choose audio: %v", err)
	}
	if err := job.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	specs := runner.recorded()
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	args := strings.Join(specs[0].Args, " ")
	if !strings.Contains(args, "-map 0:a:1") {
		t.Fatalf("expected second audio track selected, args: %s", args)
	}
}

func TestChooseAudioUnknownLanguageRejected(t *testing.T) {
	cfg := testConfig(t)
	eng := newEngine(t, cfg, &fakeProber{info: probeInfoWithTracks()}, &fakeRunner{})

	_, err := eng.ChooseAudio(context.Background(), "/media/movie.mkv", "out.mkv", engine.ByLanguage("ja"), false)
	if !errors.Is(err, services.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestTrackSelectorRejectsAmbiguousSelection(t *testing.T) {
	cfg := testConfig(t)
	eng := newEngine(t, cfg, &fakeProber{info: probeInfoWithTracks()}, &fakeRunner{})

	_, err := eng.ResolveAudioTrack(context.Background(), "/media/movie.mkv", engine.TrackSelector{Position: 1, Language: "en"})
	if !errors.Is(err, services.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestTrackSelectorPositionOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	eng := newEngine(t, cfg, &fakeProber{info: probeInfoWithTracks()}, &fakeRunner{})

	_, err := eng.ResolveSubtitleTrack(context.Background(), "/media/movie.mkv", engine.ByPosition(3))
	if !errors.Is(err, services.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRewriteChaptersAppliesEditToProbedList(t *testing.T) {
	cfg := testConfig(t)
	info := probeInfoWithTracks()
	info.Chapters = []media.ChapterEntry{
		{Index: 0, Start: 0, End: 5 * time.Minute, Title: "Intro"},
		{Index: 1, Start: 5 * time.Minute, End: 10 * time.Minute, Title: "Outro"},
	}
	runner := &fakeRunner{}
	eng := newEngine(t, cfg, &fakeProber{info: info}, runner)
	ctx := context.Background()

	job, err := eng.RewriteChapters(ctx, "/media/movie.mkv", "movie_chapters.mkv",
		func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
			return media.RemoveChapter(chapters, 0)
		})
	if err != nil {
		t.Fatalf("rewrite chapters: %v", err)
	}
	if err := job.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	specs := runner.recorded()
	if len(specs) != 1 || len(specs[0].Sidecars) != 1 {
		t.Fatalf("expected one spec with one sidecar, got %+v", specs)
	}
	content := specs[0].Sidecars[0].Content
	if strings.Contains(content, "Intro") || !strings.Contains(content, "Outro") {
		t.Fatalf("unexpected metadata content:\n%s", content)
	}
}

func TestProbeBeforeSubmitRejectsUnreadableInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers.ProbeBeforeSubmit = true
	probeErr := services.Wrap(services.ErrProbeParse, "ffprobe", "probe", "no format section", nil)
	eng := newEngine(t, cfg, &fakeProber{err: probeErr}, &fakeRunner{})

	_, err := eng.Submit(context.Background(), "/media/broken.mp4", ffmpeg.RemoveAudio{
		Input:      "/media/broken.mp4",
		OutputName: "out",
	})
	if !errors.Is(err, services.ErrProbeParse) {
		t.Fatalf("expected ErrProbeParse, got %v", err)
	}
}

func TestDrainShutdownFinishesRunningJob(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers.DrainOnShutdown = true
	cfg.Workers.ShutdownSeconds = 5
	release := make(chan struct{})
	runner := &slowRunner{release: release}
	eng := newEngine(t, cfg, &fakeProber{}, runner)
	ctx := context.Background()

	job, err := eng.Submit(ctx, "/media/movie.mp4", ffmpeg.RemoveAudio{
		Input:      "/media/movie.mp4",
		OutputName: "movie_silent",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	<-runner.started()
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	eng.Shutdown(ctx)

	if err := job.Err(); err != nil {
		t.Fatalf("drained job should complete cleanly, got %v", err)
	}
	rec, _ := eng.Record(ctx, job.ID)
	if rec.Status != queue.StatusCompleted {
		t.Fatalf("status = %s", rec.Status)
	}
}

type slowRunner struct {
	release   chan struct{}
	startOnce sync.Once
	startCh   chan struct{}
	mu        sync.Mutex
}

func (r *slowRunner) started() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startCh == nil {
		r.startCh = make(chan struct{})
	}
	return r.startCh
}

func (r *slowRunner) Run(ctx context.Context, spec executor.Spec) executor.Result {
	r.mu.Lock()
	if r.startCh == nil {
		r.startCh = make(chan struct{})
	}
	ch := r.startCh
	r.mu.Unlock()
	r.startOnce.Do(func() { close(ch) })

	select {
	case <-r.release:
		return executor.Result{Outcome: executor.OutcomeSucceeded, Artifacts: spec.Artifacts}
	case <-ctx.Done():
		return executor.Result{
			Outcome: executor.OutcomeCancelled,
			Err:     services.Wrap(services.ErrCancelled, "executor", "run", spec.Binary, ctx.Err()),
		}
	}
}
