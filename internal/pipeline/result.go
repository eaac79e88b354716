package pipeline

import (
	"context"

	"songforge/internal/artifact"
	"songforge/internal/rubric"
)

// Status models the orchestrator's run state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusValidating Status = "validating"
	StatusFixing     Status = "fixing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// MaxFixAttempts is the hard cap on repair iterations per run.
// Exhausting it is a terminal outcome, not an error.
const MaxFixAttempts = 3

// FixAttempt records one repair iteration. The sequence of attempts for
// a run is append-only.
type FixAttempt struct {
	Iteration   int                 `json:"iteration"`
	Implicated  []string            `json:"implicated"`
	Reran       []string            `json:"reran"`
	PriorHashes map[string]string   `json:"prior_hashes"`
	NewHashes   map[string]string   `json:"new_hashes"`
	Report      *rubric.ScoreReport `json:"report"`
}

// RunResult is the outcome of one end-to-end pipeline run. FAILED
// results always carry the full fix history and the last score report
// so the failure is diagnosable without re-running.
type RunResult struct {
	RunID         string
	Status        Status
	BaseSeed      uint64
	Artifacts     []*artifact.Artifact
	Report        *rubric.ScoreReport
	FixAttempts   []FixAttempt
	FailureReason string
	FailedStage   string
}

// Recorder persists run progress for audit. All methods must be safe
// for concurrent use across runs; a nil Recorder disables persistence.
type Recorder interface {
	RunStarted(ctx context.Context, runID string, baseSeed uint64, fingerprint string) error
	ArtifactProduced(ctx context.Context, runID string, art *artifact.Artifact) error
	FixAttemptRecorded(ctx context.Context, runID string, attempt FixAttempt) error
	RunFinished(ctx context.Context, result *RunResult) error
}
