package conflict_test

import (
	"reflect"
	"testing"

	"songforge/internal/blueprint"
	"songforge/internal/conflict"
)

func testBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Genre:            "synthwave",
		Tempo:            blueprint.TempoRange{Min: 90, Max: 130},
		RequiredSections: []string{"Verse", "Chorus"},
		TagPriority:      []string{"Energy:High", "Mood:Wistful"},
		Conflicts: map[string][]string{
			"Energy:High": {"Energy:Low"},
			"Mood:Bright": {"Mood:Wistful"},
		},
		CategoryLimits: map[string]int{"Instrument": 2},
	}
}

func TestResolveDropsConflictingTag(t *testing.T) {
	bp := testBlueprint()
	resolved, violations := conflict.Resolve([]string{"Energy:High", "Energy:Low"}, bp)
	if !reflect.DeepEqual(resolved, []string{"Energy:High"}) {
		t.Fatalf("resolved = %v", resolved)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %v", violations)
	}
	v := violations[0]
	if v.Tag != "Energy:Low" || v.Reason != conflict.ReasonConflict || v.With != "Energy:High" {
		t.Fatalf("violation = %+v", v)
	}
}

func TestResolvePermutationInvariant(t *testing.T) {
	bp := testBlueprint()
	first, _ := conflict.Resolve([]string{"Energy:Low", "Energy:High", "Mood:Wistful"}, bp)
	second, _ := conflict.Resolve([]string{"Mood:Wistful", "Energy:High", "Energy:Low"}, bp)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("permutations resolved differently: %v vs %v", first, second)
	}
}

func TestResolveIdempotent(t *testing.T) {
	bp := testBlueprint()
	resolved, _ := conflict.Resolve([]string{"Energy:High", "Energy:Low", "Mood:Bright"}, bp)
	again, violations := conflict.Resolve(resolved, bp)
	if !reflect.DeepEqual(resolved, again) {
		t.Fatalf("resolution not idempotent: %v vs %v", resolved, again)
	}
	if len(violations) != 0 {
		t.Fatalf("resolved set produced violations: %v", violations)
	}
}

func TestResolveCategoryLimit(t *testing.T) {
	bp := testBlueprint()
	tags := []string{"Instrument:Bass", "Instrument:Drums", "Instrument:Synth"}
	resolved, violations := conflict.Resolve(tags, bp)
	if len(resolved) != 2 {
		t.Fatalf("resolved = %v, want 2 instruments", resolved)
	}
	if len(violations) != 1 || violations[0].Reason != conflict.ReasonLimitExceeded {
		t.Fatalf("violations = %v", violations)
	}
	// Lexicographic order decides which unprioritized tags survive.
	if !reflect.DeepEqual(resolved, []string{"Instrument:Bass", "Instrument:Drums"}) {
		t.Fatalf("resolved = %v", resolved)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	bp := testBlueprint()
	resolved, violations := conflict.Resolve([]string{"Energy:High", "Energy:High"}, bp)
	if !reflect.DeepEqual(resolved, []string{"Energy:High"}) {
		t.Fatalf("resolved = %v", resolved)
	}
	if len(violations) != 0 {
		t.Fatalf("violations = %v", violations)
	}
}

func TestResolvePriorityBeatsLexicographic(t *testing.T) {
	bp := testBlueprint()
	// Mood:Bright sorts before Mood:Wistful, but the blueprint gives
	// Mood:Wistful explicit priority.
	resolved, _ := conflict.Resolve([]string{"Mood:Bright", "Mood:Wistful"}, bp)
	if !reflect.DeepEqual(resolved, []string{"Mood:Wistful"}) {
		t.Fatalf("resolved = %v, want prioritized tag to win", resolved)
	}
}
