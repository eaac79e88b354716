package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"songforge/internal/logging"
	"songforge/internal/rubric"
	"songforge/internal/seed"
)

// errNoRepairTarget terminates the fix loop when no stage can influence
// the failing metrics. Retrying would re-validate the same bundle
// forever.
var errNoRepairTarget = errors.New("no repair stages mapped to the failing metrics")

// errRecorder marks persistence failures, which are infrastructure
// errors rather than run outcomes.
var errRecorder = errors.New("recorder failure")

// stageError tags an error with the stage that produced it so a fix
// attempt failure records the offending stage.
type stageError struct {
	name string
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

func stageFailure(err error) (string, bool) {
	var se *stageError
	if errors.As(err, &se) {
		return se.name, true
	}
	return "", false
}

// fix re-invokes the stages implicated by the failing metrics, plus
// every stage downstream of one that was re-run, using seeds derived
// from the fix iteration. Unaffected stages keep their artifacts and
// pinned retrieval results untouched.
func (o *Orchestrator) fix(ctx context.Context, runLogger *slog.Logger, r *run, report *rubric.ScoreReport, iteration int) (*FixAttempt, error) {
	implicated := o.implicatedStages(report)
	if len(implicated) == 0 {
		return nil, fmt.Errorf("%w: %v", errNoRepairTarget, report.FailingMetrics)
	}

	rerun := o.propagate(implicated)
	runLogger.Info("fix attempt started",
		logging.String(logging.FieldEventType, "fix_start"),
		logging.Int(logging.FieldFixIteration, iteration),
		logging.Any("failing_metrics", report.FailingMetrics),
		logging.Any("stages", rerun),
	)

	attempt := &FixAttempt{
		Iteration:   iteration,
		Implicated:  implicated,
		Reran:       rerun,
		PriorHashes: make(map[string]string, len(rerun)),
		NewHashes:   make(map[string]string, len(rerun)),
	}

	rerunSet := make(map[string]struct{}, len(rerun))
	for _, name := range rerun {
		rerunSet[name] = struct{}{}
	}

	for idx, spec := range o.stages {
		name := spec.Handler.Name()
		if _, ok := rerunSet[name]; !ok {
			continue
		}
		if prior, ok := r.artifacts[name]; ok {
			attempt.PriorHashes[name] = prior.Hash
		}
		execCtx := seed.DeriveFix(r.id, r.baseSeed, idx, iteration, r.flags)
		if err := o.invokeStage(ctx, runLogger, r, idx, spec.Handler, execCtx); err != nil {
			if errors.Is(err, errRecorder) {
				return nil, err
			}
			return nil, &stageError{name: name, err: err}
		}
		attempt.NewHashes[name] = r.artifacts[name].Hash
	}

	return attempt, nil
}

// implicatedStages maps the report's failing metrics through the
// blueprint's repair table, keeping pipeline order and dropping stages
// this orchestrator does not run.
func (o *Orchestrator) implicatedStages(report *rubric.ScoreReport) []string {
	wanted := make(map[string]struct{})
	for _, metric := range report.FailingMetrics {
		for _, stageName := range o.bp.RepairStages(metric) {
			wanted[stageName] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(wanted))
	for _, spec := range o.stages {
		if _, ok := wanted[spec.Handler.Name()]; ok {
			ordered = append(ordered, spec.Handler.Name())
		}
	}
	return ordered
}

// propagate expands a stage set with every downstream stage that
// depends, directly or transitively, on a member. The result is in
// pipeline order.
func (o *Orchestrator) propagate(implicated []string) []string {
	affected := make(map[string]struct{}, len(implicated))
	for _, name := range implicated {
		affected[name] = struct{}{}
	}
	ordered := make([]string, 0, len(o.stages))
	for _, spec := range o.stages {
		name := spec.Handler.Name()
		if _, ok := affected[name]; !ok {
			for _, dep := range spec.DependsOn {
				if _, hit := affected[dep]; hit {
					affected[name] = struct{}{}
					break
				}
			}
		}
		if _, ok := affected[name]; ok {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
