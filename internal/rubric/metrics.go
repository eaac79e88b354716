package rubric

import (
	"math"
	"strings"

	"songforge/internal/song"
)

// HookDensity measures how much of the lyric is built from repeated
// phrases: the fraction of word bigrams that occur more than once
// across the whole sheet, scaled so a moderately hooky song reaches 1.
func HookDensity(lyrics song.LyricSheet) float64 {
	counts := make(map[string]int)
	total := 0
	for _, line := range lyrics.AllLines() {
		words := normalizeWords(line)
		for i := 0; i+1 < len(words); i++ {
			counts[words[i]+" "+words[i+1]]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	repeated := 0
	for _, n := range counts {
		if n > 1 {
			repeated += n
		}
	}
	return clamp01(3 * float64(repeated) / float64(total))
}

// Singability combines syllable-count evenness across lines with
// average word complexity. Even lines of simple words score high.
func Singability(lyrics song.LyricSheet) float64 {
	lines := lyrics.AllLines()
	if len(lines) == 0 {
		return 0
	}

	syllables := make([]float64, 0, len(lines))
	wordCount, syllableCount := 0, 0
	for _, line := range lines {
		lineSyllables := 0
		words := normalizeWords(line)
		for _, w := range words {
			s := countSyllables(w)
			lineSyllables += s
			syllableCount += s
		}
		wordCount += len(words)
		syllables = append(syllables, float64(lineSyllables))
	}
	if wordCount == 0 {
		return 0
	}

	mean := 0.0
	for _, s := range syllables {
		mean += s
	}
	mean /= float64(len(syllables))
	variance := 0.0
	for _, s := range syllables {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(syllables))
	evenness := 1 / (1 + variance/4)

	// Around 1.3 syllables per word reads as easy; past 2.5 it does not.
	complexity := float64(syllableCount) / float64(wordCount)
	simplicity := clamp01((2.5 - complexity) / 1.2)

	return clamp01((evenness + simplicity) / 2)
}

// RhymeTightness scores line-ending similarity for every line pair the
// declared scheme says should rhyme. Sheets without any rhyming pairs
// score 1: there is nothing to miss.
func RhymeTightness(lyrics song.LyricSheet) float64 {
	scheme := lyrics.RhymeScheme
	if scheme == "" {
		return 1
	}
	pairs, matched := 0, 0
	for _, section := range lyrics.Sections {
		for i := range section.Lines {
			for j := i + 1; j < len(section.Lines); j++ {
				if scheme[i%len(scheme)] != scheme[j%len(scheme)] {
					continue
				}
				pairs++
				if rhymes(section.Lines[i], section.Lines[j]) {
					matched++
				}
			}
		}
	}
	if pairs == 0 {
		return 1
	}
	return float64(matched) / float64(pairs)
}

// SectionCompleteness is the fraction of required sections present in
// the lyric sheet.
func SectionCompleteness(lyrics song.LyricSheet, required []string) float64 {
	if len(required) == 0 {
		return 1
	}
	have := make(map[string]struct{}, len(lyrics.Sections))
	for _, section := range lyrics.Sections {
		have[section.Name] = struct{}{}
	}
	found := 0
	for _, name := range required {
		if _, ok := have[name]; ok {
			found++
		}
	}
	return float64(found) / float64(len(required))
}

// Profanity is the fraction of words matching the blueprint's banned
// terms. Lower is better; 0 means clean.
func Profanity(lyrics song.LyricSheet, banned []string) float64 {
	if len(banned) == 0 {
		return 0
	}
	bannedSet := make(map[string]struct{}, len(banned))
	for _, term := range banned {
		bannedSet[strings.ToLower(term)] = struct{}{}
	}
	hits, total := 0, 0
	for _, line := range lyrics.AllLines() {
		for _, w := range normalizeWords(line) {
			total++
			if _, bad := bannedSet[w]; bad {
				hits++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return clamp01(float64(hits) / float64(total))
}

func normalizeWords(line string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '\'':
			return r
		default:
			return ' '
		}
	}, line)
	return strings.Fields(strings.ToLower(cleaned))
}

// countSyllables approximates syllables as vowel groups, with a final
// silent-e adjustment. Heuristic, but stable, which is what the
// determinism invariant needs.
func countSyllables(word string) int {
	const vowels = "aeiouy"
	count, prevVowel := 0, false
	for _, r := range word {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") && count > 1 && !strings.HasSuffix(word, "le") {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

// rhymes compares the tails of the final words of two lines. A shared
// suffix covering the last vowel group counts as a rhyme.
func rhymes(a, b string) bool {
	wa, wb := lastWord(a), lastWord(b)
	if wa == "" || wb == "" {
		return false
	}
	if wa == wb {
		return true
	}
	suffix := commonSuffixLen(wa, wb)
	if suffix < 2 {
		return false
	}
	tail := wa[len(wa)-suffix:]
	return strings.ContainsAny(tail, "aeiouy")
}

func lastWord(line string) string {
	words := normalizeWords(line)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func commonSuffixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
