package provenance

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryPinStore is an in-memory PinStore used in tests and one-shot
// CLI runs that opt out of persistence.
type MemoryPinStore struct {
	mu   sync.RWMutex
	pins map[pinKey]Pin
}

type pinKey struct {
	fingerprint string
	stageName   string
	slot        int
}

// NewMemoryPinStore builds an empty in-memory pin store.
func NewMemoryPinStore() *MemoryPinStore {
	return &MemoryPinStore{pins: make(map[pinKey]Pin)}
}

// GetPin implements PinStore.
func (s *MemoryPinStore) GetPin(_ context.Context, fingerprint, stageName string, slot int) (*Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pin, ok := s.pins[pinKey{fingerprint, stageName, slot}]
	if !ok {
		return nil, nil
	}
	return &pin, nil
}

// PutPin implements PinStore.
func (s *MemoryPinStore) PutPin(_ context.Context, pin Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[pinKey{pin.Fingerprint, pin.StageName, pin.Slot}] = pin
	return nil
}

// PhraseCorpus is a deterministic in-memory corpus of reference
// phrases. Search ranks by shared word count with the query, breaking
// ties by chunk ID, so the same query always returns the same chunks.
type PhraseCorpus struct {
	chunks []Chunk
}

// NewPhraseCorpus builds a corpus from fixed chunks.
func NewPhraseCorpus(chunks []Chunk) *PhraseCorpus {
	cp := make([]Chunk, len(chunks))
	copy(cp, chunks)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return &PhraseCorpus{chunks: cp}
}

// Search implements Corpus.
func (c *PhraseCorpus) Search(_ context.Context, query string, limit int) ([]Chunk, error) {
	words := strings.Fields(strings.ToLower(query))
	type scored struct {
		chunk Chunk
		score int
	}
	ranked := make([]scored, 0, len(c.chunks))
	for _, chunk := range c.chunks {
		text := strings.ToLower(chunk.Text)
		score := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				score++
			}
		}
		ranked = append(ranked, scored{chunk: chunk, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunk.ID < ranked[j].chunk.ID
	})
	if limit > len(ranked) || limit <= 0 {
		limit = len(ranked)
	}
	out := make([]Chunk, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, r.chunk)
	}
	return out, nil
}
