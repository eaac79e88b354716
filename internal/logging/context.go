package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldStageIndex is the standardized structured logging key for a stage's position in the pipeline.
	FieldStageIndex = "stage_index"
	// FieldFixIteration is the standardized structured logging key for fix-loop iteration numbers.
	FieldFixIteration = "fix_iteration"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldSeed is the standardized structured logging key for a run's base seed.
	FieldSeed = "seed"
)

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	fixIterationKey
)

// WithRunID tags a context with the pipeline run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithStage tags a context with the active stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// WithFixIteration tags a context with the active fix-loop iteration.
func WithFixIteration(ctx context.Context, iteration int) context.Context {
	return context.WithValue(ctx, fixIterationKey, iteration)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := ctx.Value(stageKey).(string); ok && stage != "" {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if iteration, ok := ctx.Value(fixIterationKey).(int); ok && iteration > 0 {
		fields = append(fields, slog.Int(FieldFixIteration, iteration))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
