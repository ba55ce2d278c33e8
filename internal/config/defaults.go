package config

const (
	defaultOutputDir           = "~/clipforge/output"
	defaultWorkDir             = "~/.local/share/clipforge/work"
	defaultLogDir              = "~/.local/share/clipforge/logs"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultVersionCheckSeconds = 5
	defaultWorkerCount         = 5
	defaultQueueCapacity       = 64
	defaultJobTimeoutSeconds   = 3600
	defaultKillGraceSeconds    = 5
	defaultShutdownSeconds     = 30
	defaultStderrTailKiB       = 64
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"

	// MaxWorkerCount caps the pool size the way the upstream tooling does;
	// more simultaneous ffmpeg processes than this thrash the encoder.
	MaxWorkerCount = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:              defaultFFmpegBinary,
			FFprobe:             defaultFFprobeBinary,
			VersionCheckSeconds: defaultVersionCheckSeconds,
		},
		Workers: Workers{
			Count:              defaultWorkerCount,
			QueueCapacity:      defaultQueueCapacity,
			JobTimeoutSeconds:  defaultJobTimeoutSeconds,
			KillGraceSeconds:   defaultKillGraceSeconds,
			ShutdownSeconds:    defaultShutdownSeconds,
			DrainOnShutdown:    true,
			ProbeBeforeSubmit:  true,
			StderrTailKiB:      defaultStderrTailKiB,
			RemoveFailedOutput: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
