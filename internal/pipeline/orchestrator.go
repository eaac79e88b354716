// Package pipeline orders the generation stages, validates their
// output against the rubric, and drives the bounded fix loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"songforge/internal/artifact"
	"songforge/internal/blueprint"
	"songforge/internal/logging"
	"songforge/internal/provenance"
	"songforge/internal/rubric"
	"songforge/internal/seed"
	"songforge/internal/song"
	"songforge/internal/songspec"
	"songforge/internal/stage"
	"songforge/internal/stages"
)

// StageSpec binds a stage handler to its declared upstream
// dependencies. Dependencies drive fix-loop propagation: when a stage
// is re-run, every stage downstream of it re-runs too.
type StageSpec struct {
	Handler   stage.Handler
	DependsOn []string
}

// DefaultStages returns the built-in pipeline in its fixed order.
func DefaultStages() []StageSpec {
	return []StageSpec{
		{Handler: stages.NewPlan()},
		{Handler: stages.NewStyle()},
		{Handler: stages.NewLyrics(), DependsOn: []string{stages.StagePlan, stages.StageStyle}},
		{Handler: stages.NewProducer(), DependsOn: []string{stages.StagePlan, stages.StageStyle}},
		{Handler: stages.NewCompose(), DependsOn: []string{stages.StagePlan, stages.StageStyle, stages.StageLyrics, stages.StageProducer}},
	}
}

// Orchestrator executes runs. One orchestrator may serve many
// concurrent runs; it holds only read-only reference data.
type Orchestrator struct {
	stages       []StageSpec
	bp           *blueprint.Blueprint
	pinner       *provenance.Pinner
	logger       *slog.Logger
	recorder     Recorder
	stageTimeout time.Duration
	maxFix       int
	transition   func(from, to Status, stageName string)
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithStages replaces the built-in stage set. The orchestrator owns the
// mapping; two orchestrators with different stage sets can coexist.
func WithStages(specs []StageSpec) Option {
	return func(o *Orchestrator) { o.stages = specs }
}

// WithRecorder attaches a run recorder for persistence.
func WithRecorder(rec Recorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithStageTimeout bounds each stage invocation.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithMaxFixAttempts lowers the repair cap. Values above MaxFixAttempts
// are clamped; the hard cap never rises.
func WithMaxFixAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 && n <= MaxFixAttempts {
			o.maxFix = n
		}
	}
}

// WithTransitionHook observes state machine transitions, used by tests
// and telemetry.
func WithTransitionHook(hook func(from, to Status, stageName string)) Option {
	return func(o *Orchestrator) { o.transition = hook }
}

// New constructs an orchestrator over a blueprint and a pinner.
func New(bp *blueprint.Blueprint, pinner *provenance.Pinner, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if bp == nil {
		return nil, fmt.Errorf("blueprint is required")
	}
	if err := bp.Validate(); err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		stages:       DefaultStages(),
		bp:           bp,
		pinner:       pinner,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		stageTimeout: time.Minute,
		maxFix:       MaxFixAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	return o, nil
}

// run carries the mutable state of one execution.
type run struct {
	id        string
	baseSeed  uint64
	flags     map[string]bool
	spec      *songspec.Specification
	status    Status
	artifacts map[string]*artifact.Artifact
}

// Execute runs the full pipeline for one specification and seed.
// Identical (specification, seed) inputs reproduce identical artifacts
// and score reports. Cancellation is honored between stages and before
// each fix attempt, never mid-stage.
func (o *Orchestrator) Execute(ctx context.Context, spec *songspec.Specification, baseSeed uint64, flags map[string]bool) (*RunResult, error) {
	if spec == nil {
		return nil, stage.Wrap(stage.ErrInputInvalid, "", "execute", "specification is nil", nil)
	}
	if err := spec.Validate(); err != nil {
		return nil, stage.Wrap(stage.ErrInputInvalid, "", "execute", err.Error(), nil)
	}
	fingerprint, err := spec.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint specification: %w", err)
	}

	r := &run{
		id:        uuid.NewString(),
		baseSeed:  baseSeed,
		flags:     flags,
		spec:      spec,
		status:    StatusPending,
		artifacts: make(map[string]*artifact.Artifact, len(o.stages)),
	}
	ctx = logging.WithRunID(ctx, r.id)
	runLogger := logging.WithContext(ctx, o.logger)
	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Uint64(logging.FieldSeed, baseSeed),
		logging.String("fingerprint", fingerprint),
	)

	if o.recorder != nil {
		if err := o.recorder.RunStarted(ctx, r.id, baseSeed, fingerprint); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
	}

	result, err := o.execute(ctx, runLogger, r, fingerprint)
	if err != nil {
		return nil, err
	}
	if o.recorder != nil {
		if recErr := o.recorder.RunFinished(ctx, result); recErr != nil {
			return nil, fmt.Errorf("record run finish: %w", recErr)
		}
	}
	runLogger.Info("run finished",
		logging.String(logging.FieldEventType, "run_finish"),
		logging.String("status", string(result.Status)),
		logging.Int("fix_attempts", len(result.FixAttempts)),
	)
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, runLogger *slog.Logger, r *run, fingerprint string) (*RunResult, error) {
	o.moveTo(r, StatusRunning, o.stages[0].Handler.Name())

	for idx, spec := range o.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx > 0 {
			o.moveTo(r, StatusRunning, spec.Handler.Name())
		}
		execCtx := seed.Derive(r.id, r.baseSeed, idx, r.flags)
		if err := o.invokeStage(ctx, runLogger, r, idx, spec.Handler, execCtx); err != nil {
			if errors.Is(err, errRecorder) {
				return nil, err
			}
			return o.failedResult(r, spec.Handler.Name(), err), nil
		}
	}

	o.moveTo(r, StatusValidating, "")
	report := o.score(r)
	attempts := make([]FixAttempt, 0, o.maxFix)

	for !report.Pass {
		if len(attempts) >= o.maxFix {
			o.moveTo(r, StatusFailed, "")
			result := o.buildResult(r, StatusFailed, report, attempts)
			result.FailureReason = "threshold not met after fix attempts exhausted"
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.moveTo(r, StatusFixing, "")
		attempt, err := o.fix(ctx, runLogger, r, report, len(attempts)+1)
		if err != nil {
			if failedStage, ok := stageFailure(err); ok {
				return o.failedResultWithHistory(r, failedStage, err, report, attempts), nil
			}
			if errors.Is(err, errNoRepairTarget) {
				return o.failedResultWithHistory(r, "", err, report, attempts), nil
			}
			return nil, err
		}
		o.moveTo(r, StatusValidating, "")
		report = o.score(r)
		attempt.Report = report
		attempts = append(attempts, *attempt)
		if o.recorder != nil {
			if recErr := o.recorder.FixAttemptRecorded(ctx, r.id, *attempt); recErr != nil {
				return nil, fmt.Errorf("record fix attempt: %w", recErr)
			}
		}
		runLogger.Info("fix attempt validated",
			logging.String(logging.FieldEventType, "fix_validated"),
			logging.Int(logging.FieldFixIteration, attempt.Iteration),
			logging.Float64("composite", report.Composite),
			logging.Bool("pass", report.Pass),
		)
	}

	o.moveTo(r, StatusSucceeded, "")
	return o.buildResult(r, StatusSucceeded, report, attempts), nil
}

// invokeStage wraps one stage invocation with the fixed hook sequence:
// derive seed, invoke under timeout, hash, record.
func (o *Orchestrator) invokeStage(ctx context.Context, runLogger *slog.Logger, r *run, idx int, handler stage.Handler, execCtx seed.ExecutionContext) error {
	name := handler.Name()
	stageCtx := logging.WithStage(ctx, name)
	if execCtx.FixIteration > 0 {
		stageCtx = logging.WithFixIteration(stageCtx, execCtx.FixIteration)
	}
	stageLogger := logging.WithContext(stageCtx, o.logger)

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int(logging.FieldStageIndex, idx),
	)
	start := time.Now()

	input := stage.Input{
		Spec:      r.spec,
		Blueprint: o.bp,
		Context:   execCtx,
		Upstream:  snapshot(r.artifacts),
		Pinner:    o.pinner,
	}

	art, err := o.invokeWithTimeout(stageCtx, handler, input)
	if err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_class", string(stage.Classify(err))),
			logging.Error(err),
		)
		return err
	}

	r.artifacts[name] = art
	if o.recorder != nil {
		if recErr := o.recorder.ArtifactProduced(stageCtx, r.id, art); recErr != nil {
			return fmt.Errorf("%w: record artifact: %w", errRecorder, recErr)
		}
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("artifact_hash", art.Hash),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

func (o *Orchestrator) invokeWithTimeout(ctx context.Context, handler stage.Handler, input stage.Input) (*artifact.Artifact, error) {
	if o.stageTimeout <= 0 {
		return handler.Run(ctx, input)
	}
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	type outcome struct {
		art *artifact.Artifact
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		art, err := handler.Run(stageCtx, input)
		done <- outcome{art: art, err: err}
	}()

	select {
	case <-stageCtx.Done():
		return nil, stage.Wrap(stage.ErrInternal, handler.Name(), "invoke", "stage timed out", stageCtx.Err())
	case out := <-done:
		return out.art, out.err
	}
}

func (o *Orchestrator) score(r *run) *rubric.ScoreReport {
	if art := r.artifacts[stages.StageCompose]; art != nil {
		if bundle, ok := art.Payload.(song.Bundle); ok {
			return rubric.Score(&bundle, o.bp)
		}
	}
	// A custom stage set without a compose stage scores the last
	// artifact carrying a bundle; otherwise an empty bundle.
	for i := len(o.stages) - 1; i >= 0; i-- {
		art := r.artifacts[o.stages[i].Handler.Name()]
		if art == nil {
			continue
		}
		if bundle, ok := art.Payload.(song.Bundle); ok {
			return rubric.Score(&bundle, o.bp)
		}
	}
	return rubric.Score(&song.Bundle{}, o.bp)
}

func (o *Orchestrator) moveTo(r *run, next Status, stageName string) {
	prev := r.status
	r.status = next
	if o.transition != nil {
		o.transition(prev, next, stageName)
	}
}

func (o *Orchestrator) buildResult(r *run, status Status, report *rubric.ScoreReport, attempts []FixAttempt) *RunResult {
	ordered := make([]*artifact.Artifact, 0, len(o.stages))
	for _, spec := range o.stages {
		if art, ok := r.artifacts[spec.Handler.Name()]; ok {
			ordered = append(ordered, art)
		}
	}
	return &RunResult{
		RunID:       r.id,
		Status:      status,
		BaseSeed:    r.baseSeed,
		Artifacts:   ordered,
		Report:      report,
		FixAttempts: attempts,
	}
}

func (o *Orchestrator) failedResult(r *run, stageName string, err error) *RunResult {
	return o.failedResultWithHistory(r, stageName, err, nil, nil)
}

func (o *Orchestrator) failedResultWithHistory(r *run, stageName string, err error, report *rubric.ScoreReport, attempts []FixAttempt) *RunResult {
	o.moveTo(r, StatusFailed, stageName)
	result := o.buildResult(r, StatusFailed, report, attempts)
	result.FailedStage = stageName
	result.FailureReason = err.Error()
	return result
}

func snapshot(artifacts map[string]*artifact.Artifact) map[string]*artifact.Artifact {
	cp := make(map[string]*artifact.Artifact, len(artifacts))
	for name, art := range artifacts {
		cp[name] = art
	}
	return cp
}
