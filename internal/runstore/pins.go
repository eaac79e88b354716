package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"songforge/internal/provenance"
)

// GetPin implements provenance.PinStore.
func (s *Store) GetPin(ctx context.Context, fingerprint, stageName string, slot int) (*provenance.Pin, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT hash, content FROM pins WHERE fingerprint = ? AND stage_name = ? AND slot = ?`,
		fingerprint,
		stageName,
		slot,
	)
	var hash, content string
	if err := row.Scan(&hash, &content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pin: %w", err)
	}
	return &provenance.Pin{
		Fingerprint: fingerprint,
		StageName:   stageName,
		Slot:        slot,
		Hash:        hash,
		Content:     content,
	}, nil
}

// PutPin implements provenance.PinStore. Inserting an existing key is a
// no-op so a pin can never be silently replaced.
func (s *Store) PutPin(ctx context.Context, pin provenance.Pin) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO pins (fingerprint, stage_name, slot, hash, content, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		pin.Fingerprint,
		pin.StageName,
		pin.Slot,
		pin.Hash,
		pin.Content,
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("put pin: %w", err)
	}
	return nil
}
