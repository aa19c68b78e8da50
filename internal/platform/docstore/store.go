// Package docstore provides the document collection contract the
// reconciliation engine runs against: find by query, update by id, insert,
// each atomic per document. No transaction spanning multiple documents is
// assumed or offered.
package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/domain/encounter"
)

// Marker is a persisted proof that a schema migration has fully completed.
// It exists purely as a scan-skip optimization; correctness rests on
// migration transforms being idempotent.
type Marker struct {
	MigrationID uuid.UUID `json:"migration_id"`
	Name        string    `json:"name"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Store is the encounter document collection plus its migration-marker
// sidecar. Every call succeeds or fails atomically for one document.
type Store interface {
	// Find returns the records matching the query, in stable id order.
	Find(ctx context.Context, q Query) ([]encounter.Record, error)
	// UpdateOne replaces the record with the given id and reports how many
	// documents were affected.
	UpdateOne(ctx context.Context, id string, rec encounter.Record) (int, error)
	// Insert adds a new record.
	Insert(ctx context.Context, rec encounter.Record) error

	HasMarker(ctx context.Context, migrationID uuid.UUID) (bool, error)
	InsertMarker(ctx context.Context, m Marker) error
}
