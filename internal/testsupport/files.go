package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteBlueprint writes a minimal valid blueprint TOML to a temp file
// and returns its path.
func WriteBlueprint(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blueprint.toml")
	WriteFile(t, path, `
genre = "synthwave"
required_sections = ["Verse", "Chorus"]

[tempo]
min = 90
max = 130

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
`)
	return path
}

// WriteSpecification writes a minimal valid specification TOML to a
// temp file and returns its path.
func WriteSpecification(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "spec.toml")
	WriteFile(t, path, `
title = "night drive"
genre = "synthwave"
themes = ["neon", "distance"]
style_tags = ["Mood:Wistful"]
sections = ["Verse", "Chorus", "Verse", "Chorus"]
rhyme_scheme = "AABB"
`)
	return path
}
