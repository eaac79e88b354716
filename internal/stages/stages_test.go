package stages_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"songforge/internal/artifact"
	"songforge/internal/blueprint"
	"songforge/internal/provenance"
	"songforge/internal/seed"
	"songforge/internal/song"
	"songforge/internal/songspec"
	"songforge/internal/stage"
	"songforge/internal/stages"
)

func testSpec() *songspec.Specification {
	return &songspec.Specification{
		Title:       "night drive",
		Genre:       "synthwave",
		Themes:      []string{"neon", "distance"},
		StyleTags:   []string{"Mood:Wistful"},
		Sections:    []string{"Verse", "Chorus", "Verse", "Chorus"},
		RhymeScheme: "AABB",
	}
}

func testBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Genre:            "synthwave",
		Tempo:            blueprint.TempoRange{Min: 90, Max: 130},
		RequiredSections: []string{"Verse", "Chorus"},
		TagPriority:      []string{"Energy:High"},
		Conflicts:        map[string][]string{"Energy:High": {"Energy:Low"}},
		CategoryLimits:   map[string]int{"Instrument": 3},
		Rubric:           blueprint.Rubric{MinTotal: 0.7, MaxProfanity: 0.1, MetricFloor: 0.5},
	}
}

func testPinner() *provenance.Pinner {
	corpus := provenance.NewPhraseCorpus([]provenance.Chunk{
		{ID: "c1", Text: "neon skyline fading in the mirror"},
		{ID: "c2", Text: "distance wrapped in static light"},
	})
	return provenance.NewPinner(provenance.NewMemoryPinStore(), corpus)
}

func input(t *testing.T, idx int, fixIteration int, upstream map[string]*artifact.Artifact) stage.Input {
	t.Helper()
	ctx := seed.Derive("run", 42, idx, nil)
	if fixIteration > 0 {
		ctx = seed.DeriveFix("run", 42, idx, fixIteration, nil)
	}
	return stage.Input{
		Spec:      testSpec(),
		Blueprint: testBlueprint(),
		Context:   ctx,
		Upstream:  upstream,
		Pinner:    testPinner(),
	}
}

func runPipelineStages(t *testing.T) map[string]*artifact.Artifact {
	t.Helper()
	ctx := context.Background()
	upstream := map[string]*artifact.Artifact{}
	order := []stage.Handler{stages.NewPlan(), stages.NewStyle(), stages.NewLyrics(), stages.NewProducer(), stages.NewCompose()}
	for idx, handler := range order {
		art, err := handler.Run(ctx, input(t, idx, 0, upstream))
		if err != nil {
			t.Fatalf("stage %s: %v", handler.Name(), err)
		}
		upstream[handler.Name()] = art
	}
	return upstream
}

func TestPlanHonorsSpecSections(t *testing.T) {
	art, err := stages.NewPlan().Run(context.Background(), input(t, 0, 0, nil))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan := art.Payload.(song.Plan)
	if got := plan.SectionNames(); !reflect.DeepEqual(got, []string{"Verse", "Chorus", "Verse", "Chorus"}) {
		t.Fatalf("sections = %v", got)
	}
	if plan.RhymeScheme != "AABB" {
		t.Fatalf("scheme = %q", plan.RhymeScheme)
	}
}

func TestPlanMergesRequiredOnFix(t *testing.T) {
	in := input(t, 0, 1, nil)
	in.Spec.Sections = []string{"Verse"}
	art, err := stages.NewPlan().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan := art.Payload.(song.Plan)
	if got := plan.SectionNames(); !reflect.DeepEqual(got, []string{"Verse", "Chorus"}) {
		t.Fatalf("fix pass should merge required sections, got %v", got)
	}
}

func TestPlanFirstPassDoesNotMerge(t *testing.T) {
	in := input(t, 0, 0, nil)
	in.Spec.Sections = []string{"Verse"}
	art, err := stages.NewPlan().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan := art.Payload.(song.Plan)
	if got := plan.SectionNames(); !reflect.DeepEqual(got, []string{"Verse"}) {
		t.Fatalf("first pass should honor the spec verbatim, got %v", got)
	}
}

func TestPlanRejectsOversizedBlueprint(t *testing.T) {
	in := input(t, 0, 0, nil)
	required := make([]string, 17)
	for i := range required {
		required[i] = strings.Repeat("S", i+1)
	}
	in.Blueprint.RequiredSections = required
	_, err := stages.NewPlan().Run(context.Background(), in)
	if err == nil || stage.Classify(err) != stage.FailureConstraintUnsatisfiable {
		t.Fatalf("expected constraint unsatisfiable, got %v", err)
	}
}

func TestPlanRejectsInvalidSpec(t *testing.T) {
	in := input(t, 0, 0, nil)
	in.Spec.Genre = ""
	_, err := stages.NewPlan().Run(context.Background(), in)
	if err == nil || stage.Classify(err) != stage.FailureInputInvalid {
		t.Fatalf("expected input invalid, got %v", err)
	}
}

func TestStyleResolvesConflicts(t *testing.T) {
	in := input(t, 1, 0, nil)
	in.Spec.StyleTags = []string{"Energy:Low"}
	// Genre defaults include Energy:High, which outranks Energy:Low.
	art, err := stages.NewStyle().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	sheet := art.Payload.(song.StyleSheet)
	for _, tag := range sheet.Tags {
		if tag == "Energy:Low" {
			t.Fatalf("conflicting tag survived: %v", sheet.Tags)
		}
	}
	if len(sheet.Violations) == 0 {
		t.Fatal("expected a violation for the dropped tag")
	}
}

func TestLyricsDeterministic(t *testing.T) {
	artifacts := runPipelineStages(t)
	first := artifacts[stages.StageLyrics]

	again := runPipelineStages(t)
	second := again[stages.StageLyrics]
	if first.Hash != second.Hash {
		t.Fatalf("lyrics hash differs across identical runs: %s vs %s", first.Hash, second.Hash)
	}
}

func TestLyricsCoverPlannedSections(t *testing.T) {
	artifacts := runPipelineStages(t)
	lyrics := artifacts[stages.StageLyrics].Payload.(song.LyricSheet)
	plan := artifacts[stages.StagePlan].Payload.(song.Plan)
	if len(lyrics.Sections) != len(plan.Sections) {
		t.Fatalf("lyric sections %d != planned %d", len(lyrics.Sections), len(plan.Sections))
	}
	for i, section := range lyrics.Sections {
		if section.Name != plan.Sections[i].Name {
			t.Fatalf("section %d = %s, plan says %s", i, section.Name, plan.Sections[i].Name)
		}
		if len(section.Lines) != plan.LinesPerSection {
			t.Fatalf("section %s has %d lines, want %d", section.Name, len(section.Lines), plan.LinesPerSection)
		}
	}
}

func TestChorusesRepeat(t *testing.T) {
	artifacts := runPipelineStages(t)
	lyrics := artifacts[stages.StageLyrics].Payload.(song.LyricSheet)
	var choruses [][]string
	for _, section := range lyrics.Sections {
		if section.Name == "Chorus" {
			choruses = append(choruses, section.Lines)
		}
	}
	if len(choruses) < 2 {
		t.Fatalf("expected two choruses, got %d", len(choruses))
	}
	if !reflect.DeepEqual(choruses[0], choruses[1]) {
		t.Fatalf("choruses differ:\n%v\n%v", choruses[0], choruses[1])
	}
}

func TestProducerStaysInTempoRange(t *testing.T) {
	artifacts := runPipelineStages(t)
	production := artifacts[stages.StageProducer].Payload.(song.Production)
	if production.TempoBPM < 90 || production.TempoBPM > 130 {
		t.Fatalf("tempo %d outside blueprint range", production.TempoBPM)
	}
	if len(production.Instruments) > 3 {
		t.Fatalf("instrument cap ignored: %v", production.Instruments)
	}
	if len(production.Arrangement) != 4 {
		t.Fatalf("arrangement should cover every planned section: %v", production.Arrangement)
	}
}

func TestComposeBundlesEverything(t *testing.T) {
	artifacts := runPipelineStages(t)
	bundle := artifacts[stages.StageCompose].Payload.(song.Bundle)
	if bundle.Title != "Night Drive" {
		t.Fatalf("title = %q", bundle.Title)
	}
	for _, name := range []string{stages.StagePlan, stages.StageStyle, stages.StageLyrics, stages.StageProducer} {
		want := artifacts[name].Hash
		if bundle.StageHashes[name] != want {
			t.Fatalf("bundle hash for %s = %q, want %q", name, bundle.StageHashes[name], want)
		}
	}
	if len(bundle.Lyrics.Sections) == 0 {
		t.Fatal("bundle missing lyrics")
	}
}

func TestFixIterationChangesLyrics(t *testing.T) {
	ctx := context.Background()
	upstream := map[string]*artifact.Artifact{}
	planArt, err := stages.NewPlan().Run(ctx, input(t, 0, 0, nil))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	upstream[stages.StagePlan] = planArt
	styleArt, err := stages.NewStyle().Run(ctx, input(t, 1, 0, upstream))
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	upstream[stages.StageStyle] = styleArt

	base, err := stages.NewLyrics().Run(ctx, input(t, 2, 0, upstream))
	if err != nil {
		t.Fatalf("lyrics: %v", err)
	}
	fixed, err := stages.NewLyrics().Run(ctx, input(t, 2, 1, upstream))
	if err != nil {
		t.Fatalf("lyrics fix: %v", err)
	}
	if base.Hash == fixed.Hash {
		t.Fatal("fix iteration should perturb the lyrics artifact")
	}
}
