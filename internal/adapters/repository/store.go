// Package repository defines the accuracy record store and shot source
// contracts, plus an in-memory store.
package repository

import (
	"context"

	"github.com/okian/shotline/internal/domain/model"
)

// Store persists one accuracy record per shot.
type Store interface {
	// Save inserts rec or replaces the record with the same shot ID.
	Save(ctx context.Context, rec model.ShotAccuracy) error

	// Get returns the record for shotID or ErrNotFound.
	Get(ctx context.Context, shotID int64) (model.ShotAccuracy, error)

	// List returns every record ordered by shot ID.
	List(ctx context.Context) ([]model.ShotAccuracy, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources. Calls after Close fail with ErrStoreClosed.
	Close() error
}

// ShotSource exposes ingested shots and the stone positions around them.
type ShotSource interface {
	// Shots returns every shot ordered by (end ID, number).
	Shots(ctx context.Context) ([]model.ShotRecord, error)

	// Snapshots returns the positions recorded after the previous shot of
	// the same end (empty for the first shot) and after shot itself.
	Snapshots(ctx context.Context, shot model.ShotRecord) (pre, post []model.Position, err error)
}

// ShotSink records raw shots and the positions after them. A ShotSource
// that is also a ShotSink keeps every ingested shot so a later backfill can
// replay it.
type ShotSink interface {
	// SaveShot inserts shot or replaces the shot with the same ID.
	SaveShot(ctx context.Context, shot model.ShotRecord) error

	// SavePositions replaces the positions recorded after shotID.
	SavePositions(ctx context.Context, shotID int64, positions []model.Position) error
}
