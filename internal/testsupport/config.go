package testsupport

import (
	"path/filepath"
	"testing"

	"songforge/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBlueprintPath sets the default blueprint file on the test config.
func WithBlueprintPath(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.BlueprintPath = path
	}
}

// WithMaxFixAttempts lowers the fix attempt cap on the test config.
func WithMaxFixAttempts(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.MaxFixAttempts = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
