package runstore

import (
	"time"

	"songforge/internal/pipeline"
	"songforge/internal/rubric"
)

// RunRecord is the persisted summary of one run.
type RunRecord struct {
	ID            string
	BaseSeed      uint64
	Fingerprint   string
	Status        pipeline.Status
	Composite     float64
	Report        *rubric.ScoreReport
	FailureReason string
	FailedStage   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArtifactRecord is one persisted stage artifact.
type ArtifactRecord struct {
	RunID        string
	StageName    string
	StageIndex   int
	FixIteration int
	Hash         string
	PayloadJSON  string
	CreatedAt    time.Time
}

// FixAttemptRecord is one persisted repair iteration.
type FixAttemptRecord struct {
	RunID       string
	Iteration   int
	Implicated  []string
	Reran       []string
	PriorHashes map[string]string
	NewHashes   map[string]string
	Report      *rubric.ScoreReport
	CreatedAt   time.Time
}

// StatusCounts aggregates runs by terminal and in-flight status.
type StatusCounts map[pipeline.Status]int
