// Package song defines the structured documents produced by the
// pipeline stages.
package song

import "songforge/internal/conflict"

// PlannedSection is one entry of the plan stage's section layout.
type PlannedSection struct {
	Name string `json:"name"`
	Bars int    `json:"bars"`
}

// Plan is the plan stage payload: the ordered section structure the
// rest of the pipeline fills in.
type Plan struct {
	Sections        []PlannedSection `json:"sections"`
	RhymeScheme     string           `json:"rhyme_scheme"`
	LinesPerSection int              `json:"lines_per_section"`
}

// SectionNames returns the plan's section names in order.
func (p Plan) SectionNames() []string {
	names := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		names[i] = s.Name
	}
	return names
}

// StyleSheet is the style stage payload: the conflict-resolved tag set
// plus every tag the resolver dropped.
type StyleSheet struct {
	Tags       []string             `json:"tags"`
	Violations []conflict.Violation `json:"violations"`
}

// LyricSection holds the lines written for one planned section.
type LyricSection struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// LyricSheet is the lyrics stage payload.
type LyricSheet struct {
	Sections    []LyricSection `json:"sections"`
	RhymeScheme string         `json:"rhyme_scheme"`
}

// AllLines flattens the sheet into one line slice in section order.
func (l LyricSheet) AllLines() []string {
	var lines []string
	for _, section := range l.Sections {
		lines = append(lines, section.Lines...)
	}
	return lines
}

// Production is the producer stage payload.
type Production struct {
	TempoBPM    int      `json:"tempo_bpm"`
	Key         string   `json:"key"`
	Instruments []string `json:"instruments"`
	Arrangement []string `json:"arrangement"`
}

// Bundle is the compose stage payload: the finished song document with
// the upstream artifact hashes embedded for provenance.
type Bundle struct {
	Title       string            `json:"title"`
	Genre       string            `json:"genre"`
	Plan        Plan              `json:"plan"`
	Style       StyleSheet        `json:"style"`
	Lyrics      LyricSheet        `json:"lyrics"`
	Production  Production        `json:"production"`
	StageHashes map[string]string `json:"stage_hashes"`
}
