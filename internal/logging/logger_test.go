package logging_test

import (
	"context"
	"strings"
	"testing"

	"songforge/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewConsoleAndJSON(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := logging.New(logging.Options{Format: format, Level: "debug"})
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if logger == nil {
			t.Fatalf("format %q: nil logger", format)
		}
	}
}

func TestContextFields(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithStage(ctx, "lyrics")
	ctx = logging.WithFixIteration(ctx, 2)

	fields := logging.ContextFields(ctx)
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	joined := strings.Join(keys, ",")
	for _, want := range []string{logging.FieldRunID, logging.FieldStage, logging.FieldFixIteration} {
		if !strings.Contains(joined, want) {
			t.Fatalf("fields %v missing %s", keys, want)
		}
	}
}

func TestContextFieldsEmpty(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected no-op logger")
	}
	logger.Info("safe to call")
}
