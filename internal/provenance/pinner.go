// Package provenance pins externally retrieved reference content by
// content hash so repeat runs fetch identical chunks instead of
// re-running similarity search against a corpus that may have drifted.
package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk is one retrievable piece of reference content.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Corpus is the retrieval backend a stage draws reference content from.
// Implementations must be safe for concurrent readers.
type Corpus interface {
	Search(ctx context.Context, query string, limit int) ([]Chunk, error)
}

// Pin records the hash and content of a chunk the first time a
// (run key, stage, slot) requested it.
type Pin struct {
	Fingerprint string
	StageName   string
	Slot        int
	Hash        string
	Content     string
}

// PinStore persists pins. Implementations must be safe for concurrent
// readers; the SQLite-backed store lives in the run store package.
type PinStore interface {
	GetPin(ctx context.Context, fingerprint, stageName string, slot int) (*Pin, error)
	PutPin(ctx context.Context, pin Pin) error
}

// Pinner serves reference content, pinning on first use.
type Pinner struct {
	store  PinStore
	corpus Corpus
}

// NewPinner builds a pinner over a pin store and a corpus.
func NewPinner(store PinStore, corpus Corpus) *Pinner {
	return &Pinner{store: store, corpus: corpus}
}

// Reference returns the reference content for one retrieval slot of a
// stage. The first call for a (fingerprint, stage, slot) key runs the
// corpus search and records the winning chunk's hash; every later call
// with the same key returns the recorded content without searching.
func (p *Pinner) Reference(ctx context.Context, fingerprint, stageName string, slot int, query string) (string, error) {
	if p == nil || p.store == nil {
		return "", fmt.Errorf("pin store unavailable")
	}

	pin, err := p.store.GetPin(ctx, fingerprint, stageName, slot)
	if err != nil {
		return "", fmt.Errorf("load pin: %w", err)
	}
	if pin != nil {
		if got := HashContent(pin.Content); got != pin.Hash {
			return "", fmt.Errorf("pinned content for %s slot %d does not match recorded hash", stageName, slot)
		}
		return pin.Content, nil
	}

	if p.corpus == nil {
		return "", fmt.Errorf("corpus unavailable")
	}
	chunks, err := p.corpus.Search(ctx, query, 1)
	if err != nil {
		return "", fmt.Errorf("corpus search: %w", err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("corpus returned no chunks for %q", query)
	}

	content := chunks[0].Text
	record := Pin{
		Fingerprint: fingerprint,
		StageName:   stageName,
		Slot:        slot,
		Hash:        HashContent(content),
		Content:     content,
	}
	if err := p.store.PutPin(ctx, record); err != nil {
		return "", fmt.Errorf("store pin: %w", err)
	}
	return content, nil
}

// HashContent returns the stable hash of one content chunk.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
