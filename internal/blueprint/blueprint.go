// Package blueprint loads and validates genre rule sets: tempo bounds,
// required sections, banned terms, the tag conflict matrix, rubric
// weights and thresholds, and the metric-to-stage repair mapping. A
// Blueprint is read-only after Load and safe for concurrent readers.
package blueprint

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// TempoRange bounds the producer stage's tempo selection in BPM.
type TempoRange struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Rubric carries scoring weights and acceptance thresholds.
type Rubric struct {
	MinTotal     float64            `toml:"min_total"`
	MaxProfanity float64            `toml:"max_profanity"`
	MetricFloor  float64            `toml:"metric_floor"`
	Weights      map[string]float64 `toml:"weights"`
}

// Blueprint is the externally supplied rule set consulted by the
// conflict resolver, the rubric scorer, and the built-in stages.
type Blueprint struct {
	Genre            string              `toml:"genre"`
	Tempo            TempoRange          `toml:"tempo"`
	RequiredSections []string            `toml:"required_sections"`
	BannedTerms      []string            `toml:"banned_terms"`
	TagPriority      []string            `toml:"tag_priority"`
	Conflicts        map[string][]string `toml:"conflicts"`
	CategoryLimits   map[string]int      `toml:"category_limits"`
	Rubric           Rubric              `toml:"rubric"`
	Repair           map[string][]string `toml:"repair"`
}

// Load reads a blueprint from a TOML file and validates it.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a blueprint from TOML bytes.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := toml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Validate reports the first rule that makes the blueprint unusable.
func (b *Blueprint) Validate() error {
	if b == nil {
		return fmt.Errorf("blueprint is nil")
	}
	if strings.TrimSpace(b.Genre) == "" {
		return fmt.Errorf("blueprint genre is required")
	}
	if b.Tempo.Min <= 0 || b.Tempo.Max <= 0 {
		return fmt.Errorf("tempo bounds must be positive: %d..%d", b.Tempo.Min, b.Tempo.Max)
	}
	if b.Tempo.Min > b.Tempo.Max {
		return fmt.Errorf("tempo range is inverted: %d..%d", b.Tempo.Min, b.Tempo.Max)
	}
	if len(b.RequiredSections) == 0 {
		return fmt.Errorf("at least one required section is needed")
	}
	seen := make(map[string]struct{}, len(b.RequiredSections))
	for _, section := range b.RequiredSections {
		if strings.TrimSpace(section) == "" {
			return fmt.Errorf("required sections must not be blank")
		}
		if _, dup := seen[section]; dup {
			return fmt.Errorf("required section listed twice: %s", section)
		}
		seen[section] = struct{}{}
	}
	if b.Rubric.MinTotal < 0 || b.Rubric.MinTotal > 1 {
		return fmt.Errorf("rubric min_total must be within [0,1]: %g", b.Rubric.MinTotal)
	}
	if b.Rubric.MaxProfanity < 0 || b.Rubric.MaxProfanity > 1 {
		return fmt.Errorf("rubric max_profanity must be within [0,1]: %g", b.Rubric.MaxProfanity)
	}
	if b.Rubric.MetricFloor < 0 || b.Rubric.MetricFloor > 1 {
		return fmt.Errorf("rubric metric_floor must be within [0,1]: %g", b.Rubric.MetricFloor)
	}
	positive := false
	for name, weight := range b.Rubric.Weights {
		if _, known := DefaultRepairMapping[name]; !known {
			return fmt.Errorf("rubric weight names unknown metric: %s", name)
		}
		if weight < 0 {
			return fmt.Errorf("rubric weight %s is negative: %g", name, weight)
		}
		if weight > 0 {
			positive = true
		}
	}
	if len(b.Rubric.Weights) > 0 && !positive {
		return fmt.Errorf("rubric weights are all zero")
	}
	for limit, count := range b.CategoryLimits {
		if count < 1 {
			return fmt.Errorf("category limit %s must be at least 1: %d", limit, count)
		}
	}
	return nil
}

// ConflictsWith reports whether two tags are declared mutually
// exclusive. The matrix is consulted in both directions so a one-sided
// declaration still applies.
func (b *Blueprint) ConflictsWith(a, other string) bool {
	for _, tag := range b.Conflicts[a] {
		if tag == other {
			return true
		}
	}
	for _, tag := range b.Conflicts[other] {
		if tag == a {
			return true
		}
	}
	return false
}

// PriorityRank returns a tag's position in the declared priority order,
// or the number of declared tags when it is unlisted. Lower ranks win
// ties during conflict resolution.
func (b *Blueprint) PriorityRank(tag string) int {
	for i, declared := range b.TagPriority {
		if declared == tag {
			return i
		}
	}
	return len(b.TagPriority)
}

// CategoryLimit returns the configured cap for a tag category, or 0
// when the category is uncapped.
func (b *Blueprint) CategoryLimit(category string) int {
	if b.CategoryLimits == nil {
		return 0
	}
	return b.CategoryLimits[category]
}

// RepairStages returns the stages implicated by a failing metric. The
// mapping is blueprint data first; DefaultRepairMapping fills gaps so
// an older blueprint file keeps working.
func (b *Blueprint) RepairStages(metric string) []string {
	if stages, ok := b.Repair[metric]; ok && len(stages) > 0 {
		return stages
	}
	return DefaultRepairMapping[metric]
}

// DefaultRepairMapping is the built-in metric-to-stage table used when
// a blueprint does not override it. Its keys are the full metric
// vocabulary; Validate rejects weight names outside it.
var DefaultRepairMapping = map[string][]string{
	"hook_density":         {"lyrics"},
	"singability":          {"lyrics"},
	"rhyme_tightness":      {"lyrics"},
	"section_completeness": {"plan", "producer"},
	"profanity":            {"lyrics"},
}

// TagCategory returns the category prefix of a namespaced tag such as
// "Energy:High". Tags without a namespace fall into the empty category.
func TagCategory(tag string) string {
	if idx := strings.IndexByte(tag, ':'); idx > 0 {
		return tag[:idx]
	}
	return ""
}
