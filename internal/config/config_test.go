package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songforge/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("config file should not exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Pipeline.MaxFixAttempts != 3 {
		t.Fatalf("max fix attempts = %d", cfg.Pipeline.MaxFixAttempts)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
max_fix_attempts = 2
stage_timeout_seconds = 30

[logging]
format = "json"
level = "debug"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("config file should exist")
	}
	if cfg.Pipeline.MaxFixAttempts != 2 {
		t.Fatalf("max fix attempts = %d", cfg.Pipeline.MaxFixAttempts)
	}
	if cfg.Pipeline.StageTimeoutSeconds != 30 {
		t.Fatalf("stage timeout = %d", cfg.Pipeline.StageTimeoutSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadRejectsFixAttemptsOverCeiling(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
max_fix_attempts = 5
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for max_fix_attempts above the cap")
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "verbose"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestUnknownLogFormatFallsBackToConsole(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("format = %q, want console", cfg.Logging.Format)
	}
}

func TestPathsAreExpanded(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	path := writeConfig(t, `
[paths]
data_dir = "~/songforge-data"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(home, "songforge-data")
	if cfg.Paths.DataDir != want {
		t.Fatalf("data dir = %q, want %q", cfg.Paths.DataDir, want)
	}
	if !strings.HasPrefix(cfg.DatabasePath(), want) {
		t.Fatalf("database path %q not under data dir", cfg.DatabasePath())
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestDefaultIsValidAfterNormalize(t *testing.T) {
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
