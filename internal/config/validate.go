package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir is required")
	}
	if c.Workers.Count < 1 {
		problems = append(problems, "workers.count must be at least 1")
	}
	if c.Workers.Count > MaxWorkerCount {
		problems = append(problems, fmt.Sprintf("workers.count must not exceed %d", MaxWorkerCount))
	}
	if c.Workers.QueueCapacity < 1 {
		problems = append(problems, "workers.queue_capacity must be at least 1")
	}
	if c.Workers.JobTimeoutSeconds < 1 {
		problems = append(problems, "workers.job_timeout_seconds must be at least 1")
	}
	if c.Workers.KillGraceSeconds < 0 {
		problems = append(problems, "workers.kill_grace_seconds must not be negative")
	}
	if c.Workers.ShutdownSeconds < 0 {
		problems = append(problems, "workers.shutdown_seconds must not be negative")
	}
	if c.Workers.StderrTailKiB < 1 {
		problems = append(problems, "workers.stderr_tail_kib must be at least 1")
	}
	if c.Tools.VersionCheckSeconds < 1 {
		problems = append(problems, "tools.version_check_seconds must be at least 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
