package blueprint_test

import (
	"strings"
	"testing"

	"songforge/internal/blueprint"
)

const sampleBlueprint = `
genre = "synthwave"
required_sections = ["Verse", "Chorus"]
banned_terms = ["damn"]
tag_priority = ["Energy:High", "Mood:Wistful"]

[tempo]
min = 90
max = 130

[conflicts]
"Energy:High" = ["Energy:Low"]

[category_limits]
Instrument = 3

[rubric]
min_total = 0.7
max_profanity = 0.1
metric_floor = 0.5

[rubric.weights]
hook_density = 0.2
singability = 0.2
rhyme_tightness = 0.2
section_completeness = 0.3
profanity = 0.1

[repair]
rhyme_tightness = ["lyrics"]
`

func mustParse(t *testing.T) *blueprint.Blueprint {
	t.Helper()
	bp, err := blueprint.Parse([]byte(sampleBlueprint))
	if err != nil {
		t.Fatalf("parse blueprint: %v", err)
	}
	return bp
}

func TestParseValidBlueprint(t *testing.T) {
	bp := mustParse(t)
	if bp.Tempo.Min != 90 || bp.Tempo.Max != 130 {
		t.Fatalf("tempo range %d..%d", bp.Tempo.Min, bp.Tempo.Max)
	}
	if !bp.ConflictsWith("Energy:High", "Energy:Low") {
		t.Fatal("declared conflict not detected")
	}
	if !bp.ConflictsWith("Energy:Low", "Energy:High") {
		t.Fatal("conflict matrix should apply in both directions")
	}
	if bp.ConflictsWith("Energy:High", "Mood:Wistful") {
		t.Fatal("unexpected conflict")
	}
}

func TestValidateRejectsInvertedTempo(t *testing.T) {
	raw := strings.Replace(sampleBlueprint, "min = 90", "min = 200", 1)
	if _, err := blueprint.Parse([]byte(raw)); err == nil || !strings.Contains(err.Error(), "inverted") {
		t.Fatalf("expected inverted tempo error, got %v", err)
	}
}

func TestValidateRejectsDuplicateSections(t *testing.T) {
	raw := strings.Replace(sampleBlueprint, `["Verse", "Chorus"]`, `["Verse", "Verse"]`, 1)
	if _, err := blueprint.Parse([]byte(raw)); err == nil || !strings.Contains(err.Error(), "twice") {
		t.Fatalf("expected duplicate section error, got %v", err)
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	raw := strings.Replace(sampleBlueprint, "hook_density = 0.2", "hook_density = -0.2", 1)
	if _, err := blueprint.Parse([]byte(raw)); err == nil || !strings.Contains(err.Error(), "negative") {
		t.Fatalf("expected negative weight error, got %v", err)
	}
}

func TestValidateRejectsUnknownWeightName(t *testing.T) {
	raw := strings.Replace(sampleBlueprint, "section_completeness = 0.3", "sektion_completeness = 0.3", 1)
	if _, err := blueprint.Parse([]byte(raw)); err == nil || !strings.Contains(err.Error(), "unknown metric") {
		t.Fatalf("expected unknown metric error, got %v", err)
	}
}

func TestPriorityRank(t *testing.T) {
	bp := mustParse(t)
	if got := bp.PriorityRank("Energy:High"); got != 0 {
		t.Fatalf("rank = %d, want 0", got)
	}
	if got := bp.PriorityRank("Mood:Wistful"); got != 1 {
		t.Fatalf("rank = %d, want 1", got)
	}
	if got := bp.PriorityRank("Unlisted:Tag"); got != 2 {
		t.Fatalf("unlisted rank = %d, want 2", got)
	}
}

func TestRepairStagesFallsBackToDefaults(t *testing.T) {
	bp := mustParse(t)
	if got := bp.RepairStages("rhyme_tightness"); len(got) != 1 || got[0] != "lyrics" {
		t.Fatalf("repair stages = %v", got)
	}
	got := bp.RepairStages("section_completeness")
	if len(got) != 2 || got[0] != "plan" || got[1] != "producer" {
		t.Fatalf("default repair stages = %v", got)
	}
}

func TestTagCategory(t *testing.T) {
	if got := blueprint.TagCategory("Instrument:Synth"); got != "Instrument" {
		t.Fatalf("category = %q", got)
	}
	if got := blueprint.TagCategory("loose"); got != "" {
		t.Fatalf("category = %q, want empty", got)
	}
}
