package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/engine"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
)

func parseTimestampFlag(name, value string) (time.Duration, error) {
	d, err := media.ParseTimestamp(value)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

// parseRangeList parses "start-end,start-end" where each bound is any
// accepted timestamp form.
func parseRangeList(name, value string) ([]ffmpeg.Range, error) {
	var ranges []ffmpeg.Range
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("--%s: range %q must be start-end", name, part)
		}
		start, err := media.ParseTimestamp(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		end, err := media.ParseTimestamp(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		ranges = append(ranges, ffmpeg.Range{Start: start, End: end})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("--%s: at least one range is required", name)
	}
	return ranges, nil
}

func parseTimestampList(name, value string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := media.ParseTimestamp(part)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("--%s: at least one timestamp is required", name)
	}
	return out, nil
}

// outputName resolves the extension-less output name the builder expects:
// the flag wins, otherwise the input base name plus a suffix. Extensions are
// stripped either way; the operation decides the output container.
func outputName(flagValue, input, suffix string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return strings.TrimSuffix(trimmed, filepath.Ext(trimmed))
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

// submitAndWait runs one operation to completion and reports its artifacts.
func submitAndWait(ctx context.Context, cmd *cobra.Command, eng *engine.Engine, input string, req ffmpeg.Request) error {
	job, err := eng.Submit(ctx, input, req)
	if err != nil {
		return err
	}
	return waitAndReport(ctx, cmd, eng, job)
}

func waitAndReport(ctx context.Context, cmd *cobra.Command, eng *engine.Engine, job *engine.Job) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running %s job %s\n", job.Kind, job.ID)

	if err := job.Wait(ctx); err != nil {
		return err
	}

	rec, err := eng.Record(ctx, job.ID)
	if err != nil {
		return err
	}
	if rec != nil && rec.ArtifactsJSON != "" {
		var artifacts []string
		if err := json.Unmarshal([]byte(rec.ArtifactsJSON), &artifacts); err == nil {
			for _, artifact := range artifacts {
				fmt.Fprintf(out, "Wrote %s\n", artifact)
			}
		}
	}
	return nil
}

// trackSelector passes both flags through; the engine enforces that exactly
// one is set. Position flags default to -1 meaning unset.
func trackSelector(position int, language string) engine.TrackSelector {
	return engine.TrackSelector{Position: position, Language: language}
}
