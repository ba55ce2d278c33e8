package deps

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"clipforge/internal/services"
)

const versionTimeout = 5 * time.Second

// Tool is a resolved, verified external binary.
type Tool struct {
	Name    string
	Path    string
	Version string
}

// Resolve locates the binary on PATH, or verifies an explicit path.
func Resolve(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", services.Wrap(services.ErrExecutableNotFound, "deps", "resolve", "empty command", nil)
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", services.Wrap(services.ErrExecutableNotFound, "deps", "resolve", command, err)
	}
	return path, nil
}

// Verify runs the binary with -version and returns its identity line.
func Verify(ctx context.Context, name, path string) (Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-version") //nolint:gosec
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return Tool{}, services.Wrap(services.ErrExecutableNotFound, "deps", "verify", path, err)
		}
		if ctx.Err() != nil {
			return Tool{}, services.Wrap(services.ErrTimeout, "deps", "verify", path, ctx.Err())
		}
		return Tool{}, services.Wrap(services.ErrExecutableNotFound, "deps", "verify", path+" did not report a version", err)
	}

	version, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	return Tool{Name: name, Path: path, Version: strings.TrimSpace(version)}, nil
}

// Check resolves and verifies both media tools. Both must be present; there
// is no degraded mode.
func Check(ctx context.Context, ffmpegCommand, ffprobeCommand string) (Tool, Tool, error) {
	ffmpegPath, err := Resolve(ffmpegCommand)
	if err != nil {
		return Tool{}, Tool{}, err
	}
	ffmpegTool, err := Verify(ctx, "ffmpeg", ffmpegPath)
	if err != nil {
		return Tool{}, Tool{}, err
	}

	ffprobePath, err := Resolve(ffprobeCommand)
	if err != nil {
		return Tool{}, Tool{}, err
	}
	ffprobeTool, err := Verify(ctx, "ffprobe", ffprobePath)
	if err != nil {
		return Tool{}, Tool{}, err
	}
	return ffmpegTool, ffprobeTool, nil
}
