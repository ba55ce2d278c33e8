package deps_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/deps"
	"clipforge/internal/services"
)

func writeFakeTool(t *testing.T, dir, name, versionLine string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := "#!/bin/sh\necho \"" + versionLine + "\"\necho \"built with gcc\"\n"
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}

func TestVerifyReadsFirstVersionLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeTool(t, dir, "ffmpeg", "ffmpeg version 7.1 Copyright (c) 2000-2024")

	tool, err := deps.Verify(context.Background(), "ffmpeg", path)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if tool.Version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("version = %q", tool.Version)
	}
	if tool.Path != path || tool.Name != "ffmpeg" {
		t.Fatalf("unexpected tool: %+v", tool)
	}
}

func TestResolveMissingBinary(t *testing.T) {
	_, err := deps.Resolve("definitely-not-a-real-binary-name")
	if !errors.Is(err, services.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound, got %v", err)
	}
}

func TestCheckVerifiesBothTools(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, "ffmpeg", "ffmpeg version 7.1")
	writeFakeTool(t, dir, "ffprobe", "ffprobe version 7.1")
	t.Setenv("PATH", dir)

	ffmpegTool, ffprobeTool, err := deps.Check(context.Background(), "ffmpeg", "ffprobe")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if ffmpegTool.Version != "ffmpeg version 7.1" || ffprobeTool.Version != "ffprobe version 7.1" {
		t.Fatalf("unexpected versions: %q, %q", ffmpegTool.Version, ffprobeTool.Version)
	}
}

func TestCheckFailsWhenProbeMissing(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, "ffmpeg", "ffmpeg version 7.1")
	t.Setenv("PATH", dir)

	_, _, err := deps.Check(context.Background(), "ffmpeg", "ffprobe")
	if !errors.Is(err, services.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound, got %v", err)
	}
}
