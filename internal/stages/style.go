package stages

import (
	"context"

	"songforge/internal/artifact"
	"songforge/internal/conflict"
	"songforge/internal/song"
	"songforge/internal/stage"
)

// Style merges the specification's style preferences with the genre's
// default tags and resolves the result against the blueprint's conflict
// matrix.
type Style struct{}

// NewStyle constructs the style stage.
func NewStyle() *Style { return &Style{} }

// Name implements stage.Handler.
func (s *Style) Name() string { return StageStyle }

// Run implements stage.Handler.
func (s *Style) Run(_ context.Context, in stage.Input) (*artifact.Artifact, error) {
	profile := profileFor(in.Spec.Genre)
	tags := append([]string(nil), in.Spec.StyleTags...)
	tags = append(tags, profile.styleTags...)

	resolved, violations := conflict.Resolve(tags, in.Blueprint)
	payload := song.StyleSheet{Tags: resolved, Violations: violations}
	return artifact.New(StageStyle, in.Context.StageIndex, in.Context.FixIteration, payload)
}
