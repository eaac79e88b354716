// Package songspec defines the immutable input document describing the
// song a pipeline run should produce.
package songspec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"songforge/internal/artifact"
)

// Specification is the external request for one song. It is read-only
// to the pipeline; stages consume slices of it but never modify it.
type Specification struct {
	Title           string   `toml:"title" json:"title"`
	Genre           string   `toml:"genre" json:"genre"`
	Themes          []string `toml:"themes" json:"themes"`
	StyleTags       []string `toml:"style_tags" json:"style_tags"`
	Sections        []string `toml:"sections" json:"sections"`
	RhymeScheme     string   `toml:"rhyme_scheme" json:"rhyme_scheme"`
	LinesPerSection int      `toml:"lines_per_section" json:"lines_per_section"`
}

// Load reads a specification from a TOML file.
func Load(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification: %w", err)
	}
	return Parse(data)
}

// Parse decodes a specification from TOML bytes.
func Parse(data []byte) (*Specification, error) {
	var spec Specification
	if err := toml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse specification: %w", err)
	}
	return &spec, nil
}

// Validate reports the first structural problem with the specification.
func (s *Specification) Validate() error {
	if s == nil {
		return errors.New("specification is nil")
	}
	if strings.TrimSpace(s.Genre) == "" {
		return errors.New("genre is required")
	}
	if len(s.Themes) == 0 {
		return errors.New("at least one theme is required")
	}
	for _, theme := range s.Themes {
		if strings.TrimSpace(theme) == "" {
			return errors.New("themes must not be blank")
		}
	}
	if s.LinesPerSection < 0 {
		return fmt.Errorf("lines_per_section must not be negative: %d", s.LinesPerSection)
	}
	if s.RhymeScheme != "" {
		for _, r := range s.RhymeScheme {
			if r < 'A' || r > 'Z' {
				return fmt.Errorf("rhyme scheme must use letters A-Z: %q", s.RhymeScheme)
			}
		}
	}
	return nil
}

// Fingerprint returns the content hash of the specification's canonical
// serialization. Runs with equal fingerprints and seeds share pinned
// retrieval results.
func (s *Specification) Fingerprint() (string, error) {
	return artifact.ComputeHash(s)
}

// LinesFor returns the configured line count per section, with a
// default suitable for the rubric's hook and rhyme metrics.
func (s *Specification) LinesFor() int {
	if s.LinesPerSection > 0 {
		return s.LinesPerSection
	}
	return 4
}
