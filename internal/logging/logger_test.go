package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "executor")
	logger.Info("process exited", logging.Int("exit_code", 0), logging.String("artifact", "out file.mp4"))

	line := buf.String()
	if !strings.Contains(line, "INFO executor: process exited") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "exit_code=0") {
		t.Fatalf("missing exit_code attr: %q", line)
	}
	if !strings.Contains(line, `artifact="out file.mp4"`) {
		t.Fatalf("expected quoted value with space: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("suppressed")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "suppressed") {
		t.Fatalf("info record should be suppressed at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-42")
	ctx = services.WithOperation(ctx, "extract_audio")
	logging.WithContext(ctx, logger).Debug("queued")

	line := buf.String()
	if !strings.Contains(line, "job_id=job-42") {
		t.Fatalf("missing job_id: %q", line)
	}
	if !strings.Contains(line, "operation=extract_audio") {
		t.Fatalf("missing operation: %q", line)
	}
}
