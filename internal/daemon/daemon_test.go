package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/daemon"
)

func fakeTools(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		body := "#!/bin/sh\necho \"" + name + " version 7.1\"\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
			t.Fatalf("write fake %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Workers.Count = 1
	return &cfg
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	fakeTools(t)
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer first.Stop(ctx)

	second, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new second: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop(ctx)
		t.Fatal("second instance should not acquire the lock")
	}
}

func TestStopReleasesLockForNextStart(t *testing.T) {
	fakeTools(t)
	cfg := testConfig(t)
	ctx := context.Background()

	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if d.Engine() == nil {
		t.Fatal("engine should be available while running")
	}
	d.Stop(ctx)

	next, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new next: %v", err)
	}
	if err := next.Start(ctx); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	next.Stop(ctx)
}
