package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BlueprintPath) != "" {
		if c.Paths.BlueprintPath, err = expandPath(c.Paths.BlueprintPath); err != nil {
			return fmt.Errorf("paths.blueprint_path: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.CorpusPath) != "" {
		if c.Paths.CorpusPath, err = expandPath(c.Paths.CorpusPath); err != nil {
			return fmt.Errorf("paths.corpus_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MaxFixAttempts <= 0 {
		c.Pipeline.MaxFixAttempts = defaultMaxFixAttempts
	}
	if c.Pipeline.StageTimeoutSeconds <= 0 {
		c.Pipeline.StageTimeoutSeconds = defaultStageTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
