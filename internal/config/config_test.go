package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/config"
)

func TestLoadDefaultsWhenNoFilePresent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "clipforge", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Fatalf("unexpected tool binaries: %+v", cfg.Tools)
	}
	if cfg.Workers.Count != 5 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if !cfg.Workers.DrainOnShutdown {
		t.Fatal("expected drain_on_shutdown default true")
	}
	if !cfg.Workers.ProbeBeforeSubmit {
		t.Fatal("expected probe_before_submit default true")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		"[workers]",
		"count = 2",
		"queue_capacity = 8",
		"drain_on_shutdown = false",
		"[logging]",
		`format = "json"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Workers.Count != 2 || cfg.Workers.QueueCapacity != 8 {
		t.Fatalf("unexpected workers: %+v", cfg.Workers)
	}
	if cfg.Workers.DrainOnShutdown {
		t.Fatal("expected drain_on_shutdown false")
	}
	if cfg.Workers.JobTimeoutSeconds != 3600 {
		t.Fatalf("expected default job timeout to survive partial file, got %d", cfg.Workers.JobTimeoutSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadWorkerCount(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.Count = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
	cfg.Workers.Count = config.MaxWorkerCount + 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized pool")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[workers]") {
		t.Fatal("sample config missing workers section")
	}
}
