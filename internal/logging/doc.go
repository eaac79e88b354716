// Package logging assembles the structured slog loggers used across
// songforge.
//
// It owns the configurable console/JSON handlers and exposes
// context-aware helpers so pipeline code can automatically tag log
// lines with run IDs, stage names, and fix-loop iterations. The package
// also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
