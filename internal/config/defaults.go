package config

const (
	defaultDataDir             = "~/.local/share/songforge"
	defaultLogDir              = "~/.local/share/songforge/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
	defaultMaxFixAttempts      = 3
	defaultStageTimeoutSeconds = 60
)

// MaxFixAttemptsCeiling is the hard cap on the configurable fix attempt
// limit. A config may lower the cap, never raise it.
const MaxFixAttemptsCeiling = 3

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Pipeline: Pipeline{
			MaxFixAttempts:      defaultMaxFixAttempts,
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
