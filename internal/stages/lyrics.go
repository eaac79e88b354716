package stages

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"songforge/internal/artifact"
	"songforge/internal/song"
	"songforge/internal/stage"
)

// Lyrics writes lines for every planned section. End words come from
// rhyme families bound to the plan's scheme letters; imagery threads in
// words from the specification's themes and from pinned reference
// phrases so repeat runs quote identical corpus content.
type Lyrics struct{}

// NewLyrics constructs the lyrics stage.
func NewLyrics() *Lyrics { return &Lyrics{} }

// Name implements stage.Handler.
func (l *Lyrics) Name() string { return StageLyrics }

// Run implements stage.Handler.
func (l *Lyrics) Run(ctx context.Context, in stage.Input) (*artifact.Artifact, error) {
	plan, err := stage.UpstreamPayload[song.Plan](in, StagePlan)
	if err != nil {
		return nil, err
	}
	if len(plan.Sections) == 0 {
		return nil, stage.Wrap(stage.ErrInputInvalid, StageLyrics, "plan", "no sections to write", nil)
	}

	fingerprint, err := in.Spec.Fingerprint()
	if err != nil {
		return nil, stage.Wrap(stage.ErrInternal, StageLyrics, "fingerprint", "", err)
	}

	rng := in.Context.Rand()
	nouns := themeNouns(in.Spec.Themes)

	// One pinned reference phrase per theme; its words join the imagery
	// pool so the lyric provably derives from the pinned chunk.
	for slot, theme := range in.Spec.Themes {
		phrase, refErr := in.Pinner.Reference(ctx, fingerprint, StageLyrics, slot, theme)
		if refErr != nil {
			return nil, stage.Wrap(stage.ErrInternal, StageLyrics, "pinned retrieval", theme, refErr)
		}
		for _, word := range strings.Fields(phrase) {
			if len(word) > 3 {
				nouns = append(nouns, strings.ToLower(word))
			}
		}
	}

	scheme := plan.RhymeScheme
	if scheme == "" {
		scheme = "AABB"
	}
	families := pickFamilies(rng, scheme)
	hook := buildLine(rng, nouns, pickEnd(rng, families[scheme[0]], nil))

	var chorus []string
	sections := make([]song.LyricSection, len(plan.Sections))
	for i, planned := range plan.Sections {
		if planned.Name == "Chorus" && chorus != nil {
			sections[i] = song.LyricSection{Name: planned.Name, Lines: append([]string(nil), chorus...)}
			continue
		}
		lines := l.writeSection(rng, planned.Name, plan.LinesPerSection, scheme, families, nouns, hook)
		if planned.Name == "Chorus" {
			chorus = lines
		}
		sections[i] = song.LyricSection{Name: planned.Name, Lines: lines}
	}

	payload := song.LyricSheet{Sections: sections, RhymeScheme: scheme}
	return artifact.New(StageLyrics, in.Context.StageIndex, in.Context.FixIteration, payload)
}

// writeSection produces one section's lines. Choruses open with the
// hook and repeat it mid-section so the song carries a hook even when
// the plan holds a single chorus.
func (l *Lyrics) writeSection(rng *rand.Rand, name string, lineCount int, scheme string, families map[byte][]string, nouns []string, hook string) []string {
	used := make(map[string]struct{})
	lines := make([]string, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		letter := scheme[i%len(scheme)]
		// The hook fills every line sharing the scheme's first letter,
		// so choruses repeat it without breaking the rhyme scheme.
		if name == "Chorus" && letter == scheme[0] {
			lines = append(lines, hook)
			continue
		}
		end := pickEnd(rng, families[letter], used)
		lines = append(lines, buildLine(rng, nouns, end))
	}
	return lines
}

func buildLine(rng *rand.Rand, nouns []string, end string) string {
	starter := lineStarters[rng.Intn(len(lineStarters))]
	noun := nouns[rng.Intn(len(nouns))]
	connector := lineConnectors[rng.Intn(len(lineConnectors))]
	return fmt.Sprintf("%s %s %s %s", starter, noun, connector, end)
}

// pickEnd draws an unused word from a rhyme family, reusing words only
// once the family is exhausted.
func pickEnd(rng *rand.Rand, family []string, used map[string]struct{}) string {
	if len(family) == 0 {
		return "away"
	}
	start := rng.Intn(len(family))
	for offset := 0; offset < len(family); offset++ {
		candidate := family[(start+offset)%len(family)]
		if used == nil {
			return candidate
		}
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
	return family[start]
}

// pickFamilies assigns one rhyme family per distinct scheme letter.
func pickFamilies(rng *rand.Rand, scheme string) map[byte][]string {
	assigned := make(map[byte][]string)
	order := rng.Perm(len(rhymeFamilies))
	next := 0
	for i := 0; i < len(scheme); i++ {
		letter := scheme[i]
		if _, ok := assigned[letter]; ok {
			continue
		}
		assigned[letter] = rhymeFamilies[order[next%len(order)]]
		next++
	}
	return assigned
}

func themeNouns(themes []string) []string {
	nouns := append([]string(nil), imageryNouns...)
	for _, theme := range themes {
		nouns = append(nouns, strings.ToLower(strings.TrimSpace(theme)))
	}
	return nouns
}
