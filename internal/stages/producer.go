package stages

import (
	"context"
	"fmt"

	"songforge/internal/artifact"
	"songforge/internal/blueprint"
	"songforge/internal/song"
	"songforge/internal/stage"
)

// Producer selects tempo, key, and instrumentation within the
// blueprint's bounds and sketches an arrangement over the plan.
type Producer struct{}

// NewProducer constructs the producer stage.
func NewProducer() *Producer { return &Producer{} }

// Name implements stage.Handler.
func (p *Producer) Name() string { return StageProducer }

// Run implements stage.Handler.
func (p *Producer) Run(_ context.Context, in stage.Input) (*artifact.Artifact, error) {
	plan, err := stage.UpstreamPayload[song.Plan](in, StagePlan)
	if err != nil {
		return nil, err
	}
	style, err := stage.UpstreamPayload[song.StyleSheet](in, StageStyle)
	if err != nil {
		return nil, err
	}

	rng := in.Context.Rand()
	profile := profileFor(in.Spec.Genre)

	tempoSpan := in.Blueprint.Tempo.Max - in.Blueprint.Tempo.Min
	tempo := in.Blueprint.Tempo.Min
	if tempoSpan > 0 {
		tempo += rng.Intn(tempoSpan + 1)
	}

	key := profile.keys[rng.Intn(len(profile.keys))]

	limit := in.Blueprint.CategoryLimit("Instrument")
	if limit <= 0 || limit > len(profile.instruments) {
		limit = len(profile.instruments)
	}
	order := rng.Perm(len(profile.instruments))
	instruments := make([]string, 0, limit)
	for _, idx := range order[:limit] {
		instruments = append(instruments, profile.instruments[idx])
	}

	arrangement := make([]string, 0, len(plan.Sections))
	for _, section := range plan.Sections {
		note := fmt.Sprintf("%s: %d bars, %s", section.Name, section.Bars, dynamicFor(section.Name, style.Tags))
		arrangement = append(arrangement, note)
	}

	payload := song.Production{
		TempoBPM:    tempo,
		Key:         key,
		Instruments: instruments,
		Arrangement: arrangement,
	}
	return artifact.New(StageProducer, in.Context.StageIndex, in.Context.FixIteration, payload)
}

func dynamicFor(sectionName string, tags []string) string {
	high := false
	for _, tag := range tags {
		if blueprint.TagCategory(tag) == "Energy" && tag == "Energy:High" {
			high = true
		}
	}
	switch sectionName {
	case "Chorus":
		if high {
			return "full mix, driving"
		}
		return "full mix"
	case "Bridge":
		return "stripped back"
	default:
		if high {
			return "building"
		}
		return "sparse"
	}
}
