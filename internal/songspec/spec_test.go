package songspec_test

import (
	"strings"
	"testing"

	"songforge/internal/songspec"
)

const sampleSpec = `
title = "Night Drive"
genre = "synthwave"
themes = ["neon", "distance"]
style_tags = ["Energy:High", "Mood:Wistful"]
sections = ["Verse", "Chorus", "Verse", "Chorus", "Bridge"]
rhyme_scheme = "AABB"
lines_per_section = 4
`

func TestParseAndValidate(t *testing.T) {
	spec, err := songspec.Parse([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if spec.Genre != "synthwave" {
		t.Fatalf("unexpected genre %q", spec.Genre)
	}
	if got := spec.LinesFor(); got != 4 {
		t.Fatalf("lines per section = %d, want 4", got)
	}
}

func TestValidateRejectsMissingGenre(t *testing.T) {
	spec := &songspec.Specification{Themes: []string{"rain"}}
	if err := spec.Validate(); err == nil || !strings.Contains(err.Error(), "genre") {
		t.Fatalf("expected genre error, got %v", err)
	}
}

func TestValidateRejectsBadRhymeScheme(t *testing.T) {
	spec := &songspec.Specification{Genre: "folk", Themes: []string{"roads"}, RhymeScheme: "a1b"}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected rhyme scheme error")
	}
}

func TestFingerprintStable(t *testing.T) {
	a, err := songspec.Parse([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := songspec.Parse([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	fb, err := b.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fa != fb {
		t.Fatalf("fingerprints differ: %s vs %s", fa, fb)
	}
}

func TestLinesForDefault(t *testing.T) {
	spec := &songspec.Specification{Genre: "folk", Themes: []string{"roads"}}
	if got := spec.LinesFor(); got != 4 {
		t.Fatalf("default lines = %d, want 4", got)
	}
}
