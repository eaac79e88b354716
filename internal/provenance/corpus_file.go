package provenance

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type corpusFile struct {
	Chunks []Chunk `toml:"chunks"`
}

// LoadCorpusFile reads a TOML corpus of reference chunks:
//
//	[[chunks]]
//	id = "c1"
//	text = "neon skyline fading in the mirror"
func LoadCorpusFile(path string) (*PhraseCorpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var parsed corpusFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(parsed.Chunks) == 0 {
		return nil, fmt.Errorf("corpus %s holds no chunks", path)
	}
	seen := make(map[string]struct{}, len(parsed.Chunks))
	for _, chunk := range parsed.Chunks {
		if chunk.ID == "" {
			return nil, fmt.Errorf("corpus %s has a chunk without an id", path)
		}
		if _, dup := seen[chunk.ID]; dup {
			return nil, fmt.Errorf("corpus %s repeats chunk id %q", path, chunk.ID)
		}
		seen[chunk.ID] = struct{}{}
	}
	return NewPhraseCorpus(parsed.Chunks), nil
}

// BuiltinCorpus returns the stock reference corpus used when no corpus
// file is configured.
func BuiltinCorpus() *PhraseCorpus {
	return NewPhraseCorpus([]Chunk{
		{ID: "stock-01", Text: "neon skyline fading in the rearview mirror"},
		{ID: "stock-02", Text: "distance measured in static and streetlight"},
		{ID: "stock-03", Text: "engine hum under a midnight summer rain"},
		{ID: "stock-04", Text: "paper lanterns drifting over the harbor"},
		{ID: "stock-05", Text: "dust on the dashboard and a map of nowhere"},
		{ID: "stock-06", Text: "every mile marker counting down to morning"},
		{ID: "stock-07", Text: "voices on the radio dissolving into wind"},
		{ID: "stock-08", Text: "shadow of the water tower across the field"},
	})
}
