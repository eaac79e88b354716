// Package artifact defines the immutable per-stage output envelope and
// its content-addressed hash.
package artifact

import (
	"fmt"
	"time"
)

// Artifact is the output of one pipeline stage. Artifacts are immutable
// once built; a repair produces a new Artifact rather than mutating an
// existing one.
type Artifact struct {
	StageName    string    `json:"stage_name"`
	StageIndex   int       `json:"stage_index"`
	FixIteration int       `json:"fix_iteration"`
	Payload      any       `json:"payload"`
	Hash         string    `json:"hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// New builds an Artifact for a stage payload and computes its content
// hash over the payload's canonical serialization. CreatedAt is
// informational only and never participates in the hash.
func New(stageName string, stageIndex, fixIteration int, payload any) (*Artifact, error) {
	hash, err := ComputeHash(payload)
	if err != nil {
		return nil, fmt.Errorf("hash %s artifact: %w", stageName, err)
	}
	return &Artifact{
		StageName:    stageName,
		StageIndex:   stageIndex,
		FixIteration: fixIteration,
		Payload:      payload,
		Hash:         hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
