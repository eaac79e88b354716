package stages

import (
	"context"
	"fmt"

	"songforge/internal/artifact"
	"songforge/internal/song"
	"songforge/internal/stage"
)

// maxPlannedSections bounds the section layout so a blueprint cannot
// demand a structure the downstream stages will never fill.
const maxPlannedSections = 16

// Plan lays out the song's section structure from the specification's
// requested sections and the blueprint's required set.
type Plan struct{}

// NewPlan constructs the plan stage.
func NewPlan() *Plan { return &Plan{} }

// Name implements stage.Handler.
func (p *Plan) Name() string { return StagePlan }

// Run implements stage.Handler. The first pass honors the
// specification's section list verbatim; fix-loop re-invocations merge
// in any required sections the spec omitted, which is how a
// section-completeness failure gets repaired.
func (p *Plan) Run(_ context.Context, in stage.Input) (*artifact.Artifact, error) {
	if err := in.Spec.Validate(); err != nil {
		return nil, stage.Wrap(stage.ErrInputInvalid, StagePlan, "validate specification", err.Error(), nil)
	}
	if len(in.Blueprint.RequiredSections) > maxPlannedSections {
		return nil, stage.Wrap(stage.ErrConstraintUnsatisfiable, StagePlan, "layout",
			fmt.Sprintf("blueprint requires %d sections, limit is %d", len(in.Blueprint.RequiredSections), maxPlannedSections), nil)
	}

	names := append([]string(nil), in.Spec.Sections...)
	if len(names) == 0 {
		names = defaultLayout(in.Blueprint.RequiredSections)
	}
	if in.Context.FixIteration > 0 {
		names = mergeRequired(names, in.Blueprint.RequiredSections)
	}
	if len(names) > maxPlannedSections {
		names = names[:maxPlannedSections]
	}

	rng := in.Context.Rand()
	sections := make([]song.PlannedSection, len(names))
	for i, name := range names {
		bars := 16
		if name == "Chorus" {
			bars = 8
		}
		if rng.Intn(4) == 0 {
			bars /= 2
		}
		sections[i] = song.PlannedSection{Name: name, Bars: bars}
	}

	scheme := in.Spec.RhymeScheme
	if scheme == "" {
		scheme = "AABB"
	}
	payload := song.Plan{
		Sections:        sections,
		RhymeScheme:     scheme,
		LinesPerSection: in.Spec.LinesFor(),
	}
	return artifact.New(StagePlan, in.Context.StageIndex, in.Context.FixIteration, payload)
}

// defaultLayout builds a conventional arrangement containing each
// required section, doubling the chorus when present.
func defaultLayout(required []string) []string {
	layout := append([]string(nil), required...)
	for _, name := range required {
		if name == "Chorus" {
			layout = append(layout, "Chorus")
			break
		}
	}
	return layout
}

func mergeRequired(names, required []string) []string {
	have := make(map[string]struct{}, len(names))
	for _, name := range names {
		have[name] = struct{}{}
	}
	merged := append([]string(nil), names...)
	for _, name := range required {
		if _, ok := have[name]; !ok {
			merged = append(merged, name)
		}
	}
	return merged
}
