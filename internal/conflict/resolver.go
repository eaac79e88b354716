// Package conflict resolves categorical tag sets against a blueprint's
// conflict matrix and category limits.
package conflict

import (
	"fmt"
	"sort"

	"songforge/internal/blueprint"
)

// Reason classifies why a tag was dropped during resolution.
type Reason string

const (
	ReasonConflict      Reason = "conflict"
	ReasonLimitExceeded Reason = "limit_exceeded"
)

// Violation records one dropped tag and why it was dropped.
type Violation struct {
	Tag    string `json:"tag"`
	Reason Reason `json:"reason"`
	With   string `json:"with,omitempty"`
}

func (v Violation) String() string {
	if v.Reason == ReasonConflict {
		return fmt.Sprintf("%s dropped: conflicts with %s", v.Tag, v.With)
	}
	return fmt.Sprintf("%s dropped: category limit exceeded", v.Tag)
}

// Resolve returns the input tag set with conflicts and category
// overflow removed, plus a violation per dropped tag. Tags are
// processed in blueprint priority order, lexicographic among equals, so
// any permutation of the same input resolves identically and
// first-accepted wins. Resolving an already resolved set returns it
// unchanged with no violations.
func Resolve(tags []string, bp *blueprint.Blueprint) ([]string, []Violation) {
	ordered := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		ordered = append(ordered, tag)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := bp.PriorityRank(ordered[i]), bp.PriorityRank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return ordered[i] < ordered[j]
	})

	accepted := make([]string, 0, len(ordered))
	violations := []Violation{}
	counts := make(map[string]int)

	for _, tag := range ordered {
		conflicted := ""
		for _, kept := range accepted {
			if bp.ConflictsWith(kept, tag) {
				conflicted = kept
				break
			}
		}
		if conflicted != "" {
			violations = append(violations, Violation{Tag: tag, Reason: ReasonConflict, With: conflicted})
			continue
		}

		category := blueprint.TagCategory(tag)
		if limit := bp.CategoryLimit(category); limit > 0 && counts[category] >= limit {
			violations = append(violations, Violation{Tag: tag, Reason: ReasonLimitExceeded})
			continue
		}
		counts[category]++
		accepted = append(accepted, tag)
	}

	return accepted, violations
}
