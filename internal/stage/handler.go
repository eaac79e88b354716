// Package stage defines the contract every pipeline stage implements
// and the failure taxonomy stages report through.
package stage

import (
	"context"

	"songforge/internal/artifact"
	"songforge/internal/blueprint"
	"songforge/internal/provenance"
	"songforge/internal/seed"
	"songforge/internal/songspec"
)

// Input is the envelope a stage receives. Stages must be pure functions
// of this input: same Input, same Artifact, byte for byte.
type Input struct {
	Spec      *songspec.Specification
	Blueprint *blueprint.Blueprint
	Context   seed.ExecutionContext
	Upstream  map[string]*artifact.Artifact
	Pinner    *provenance.Pinner
}

// Handler describes the contract the orchestrator needs from each stage.
type Handler interface {
	Name() string
	Run(context.Context, Input) (*artifact.Artifact, error)
}

// UpstreamPayload fetches a prior stage's payload by stage name,
// reporting ErrInputInvalid when the dependency is missing.
func UpstreamPayload[T any](in Input, stageName string) (T, error) {
	var zero T
	art, ok := in.Upstream[stageName]
	if !ok || art == nil {
		return zero, Wrap(ErrInputInvalid, stageName, "upstream", "artifact missing", nil)
	}
	payload, ok := art.Payload.(T)
	if !ok {
		return zero, Wrap(ErrInputInvalid, stageName, "upstream", "unexpected payload type", nil)
	}
	return payload, nil
}
