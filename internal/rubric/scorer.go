// Package rubric evaluates a composed song bundle against a weighted
// set of metrics and the blueprint's acceptance thresholds.
package rubric

import (
	"math"
	"sort"

	"songforge/internal/blueprint"
	"songforge/internal/song"
)

// MetricHookDensity and friends name the built-in metrics. The names
// are data: blueprints key weights and repair mappings on them.
const (
	MetricHookDensity         = "hook_density"
	MetricSingability         = "singability"
	MetricRhymeTightness      = "rhyme_tightness"
	MetricSectionCompleteness = "section_completeness"
	MetricProfanity           = "profanity"
)

// MetricNames lists every built-in metric in a fixed order.
var MetricNames = []string{
	MetricHookDensity,
	MetricSingability,
	MetricRhymeTightness,
	MetricSectionCompleteness,
	MetricProfanity,
}

const defaultMetricFloor = 0.5

// ScoreReport is the outcome of one validation pass. Reports are
// retained across fix iterations for audit.
type ScoreReport struct {
	Metrics        map[string]float64 `json:"metrics"`
	Weights        map[string]float64 `json:"weights"`
	Composite      float64            `json:"composite"`
	MinTotal       float64            `json:"min_total"`
	MaxProfanity   float64            `json:"max_profanity"`
	Pass           bool               `json:"pass"`
	FailingMetrics []string           `json:"failing_metrics"`
}

// Score evaluates every metric, combines them under the blueprint's
// renormalized weights, and applies both acceptance thresholds. The
// profanity metric is stored raw (lower is better) and enters the
// composite inverted so the composite stays monotone-good.
func Score(bundle *song.Bundle, bp *blueprint.Blueprint) *ScoreReport {
	metrics := map[string]float64{
		MetricHookDensity:         HookDensity(bundle.Lyrics),
		MetricSingability:         Singability(bundle.Lyrics),
		MetricRhymeTightness:      RhymeTightness(bundle.Lyrics),
		MetricSectionCompleteness: SectionCompleteness(bundle.Lyrics, bp.RequiredSections),
		MetricProfanity:           Profanity(bundle.Lyrics, bp.BannedTerms),
	}

	weights := NormalizeWeights(bp.Rubric.Weights)
	// Summation order is fixed so the composite is bit-identical across
	// runs regardless of map iteration order.
	composite := 0.0
	for _, name := range MetricNames {
		weight, ok := weights[name]
		if !ok {
			continue
		}
		value := metrics[name]
		if name == MetricProfanity {
			value = 1 - value
		}
		composite += weight * value
	}

	report := &ScoreReport{
		Metrics:      metrics,
		Weights:      weights,
		Composite:    composite,
		MinTotal:     bp.Rubric.MinTotal,
		MaxProfanity: bp.Rubric.MaxProfanity,
	}
	report.Pass = composite >= bp.Rubric.MinTotal && metrics[MetricProfanity] <= bp.Rubric.MaxProfanity
	if !report.Pass {
		report.FailingMetrics = failingMetrics(metrics, bp)
	}
	return report
}

// NormalizeWeights returns a copy of the supplied weights scaled to sum
// to 1.0. Names outside MetricNames are dropped before scaling so the
// weights the composite actually applies always carry the full sum.
// Missing, empty, or all-zero weight maps fall back to equal weights
// across the built-in metrics.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	total := 0.0
	for name, w := range weights {
		if w > 0 && knownMetric(name) {
			total += w
		}
	}
	normalized := make(map[string]float64, len(weights))
	if total <= 0 {
		equal := 1.0 / float64(len(MetricNames))
		for _, name := range MetricNames {
			normalized[name] = equal
		}
		return normalized
	}
	for name, w := range weights {
		if w > 0 && knownMetric(name) {
			normalized[name] = w / total
		}
	}
	return normalized
}

func knownMetric(name string) bool {
	for _, known := range MetricNames {
		if known == name {
			return true
		}
	}
	return false
}

// failingMetrics lists every metric at or below the per-metric floor, plus
// profanity when it exceeds its own threshold. When the composite fails
// without any metric under the floor, the weakest metric is implicated
// so the fix loop always has a target. The result is sorted for
// deterministic repair ordering.
func failingMetrics(metrics map[string]float64, bp *blueprint.Blueprint) []string {
	floor := bp.Rubric.MetricFloor
	if floor <= 0 {
		floor = defaultMetricFloor
	}

	failing := make([]string, 0, len(metrics))
	for _, name := range MetricNames {
		if name == MetricProfanity {
			if metrics[name] > bp.Rubric.MaxProfanity {
				failing = append(failing, name)
			}
			continue
		}
		if metrics[name] <= floor {
			failing = append(failing, name)
		}
	}

	if len(failing) == 0 {
		weakest, low := "", math.Inf(1)
		for _, name := range MetricNames {
			if name == MetricProfanity {
				continue
			}
			if metrics[name] < low {
				weakest, low = name, metrics[name]
			}
		}
		if weakest != "" {
			failing = append(failing, weakest)
		}
	}

	sort.Strings(failing)
	return failing
}
