package migration

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/domain/encounter"
	"github.com/carelog/carelog/internal/platform/docstore"
)

// Migration is one schema change over the encounter document collection.
//
// Transform must be a pure, idempotent function of the record: re-applying
// it to an already-migrated record yields the same record. That property,
// not the marker, is what makes a partially completed run safe to retry;
// the marker only lets a completed migration skip its scan. Every migration
// added to the registry must preserve it.
type Migration struct {
	ID        uuid.UUID
	Name      string
	Selector  docstore.Query
	Transform func(encounter.Record) encounter.Record
}

// RunError is a fatal migration failure, naming the migration and the
// record on which the run aborted.
type RunError struct {
	MigrationID   uuid.UUID
	MigrationName string
	RecordID      string
	Err           error
}

func (e *RunError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("migration %s (%s): %v", e.MigrationName, e.MigrationID, e.Err)
	}
	return fmt.Sprintf("migration %s (%s), record %s: %v", e.MigrationName, e.MigrationID, e.RecordID, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Runner applies migrations against a document store, exactly once each,
// safely re-runnable.
type Runner struct {
	store docstore.Store
	log   zerolog.Logger
}

// NewRunner builds a runner over the given store.
func NewRunner(store docstore.Store, logger zerolog.Logger) *Runner {
	return &Runner{store: store, log: logger}
}

// Apply runs the migrations in list order. Order is meaning-bearing: later
// migrations may select on fields earlier ones introduced. Any store error
// or an update affecting other than exactly one document aborts the entire
// run; callers must treat that as a blocking failure, not a partial
// success.
func (r *Runner) Apply(ctx context.Context, migrations []Migration) error {
	for _, m := range migrations {
		done, err := r.store.HasMarker(ctx, m.ID)
		if err != nil {
			return &RunError{MigrationID: m.ID, MigrationName: m.Name, Err: err}
		}
		if done {
			r.log.Debug().Str("migration", m.Name).Msg("already applied, skipping")
			continue
		}

		records, err := r.store.Find(ctx, m.Selector)
		if err != nil {
			return &RunError{MigrationID: m.ID, MigrationName: m.Name, Err: err}
		}

		updated := 0
		for _, rec := range records {
			next := m.Transform(rec)
			if reflect.DeepEqual(next, rec) {
				continue
			}
			n, err := r.store.UpdateOne(ctx, rec.ID, next)
			if err != nil {
				return &RunError{MigrationID: m.ID, MigrationName: m.Name, RecordID: rec.ID, Err: err}
			}
			if n != 1 {
				return &RunError{
					MigrationID:   m.ID,
					MigrationName: m.Name,
					RecordID:      rec.ID,
					Err:           fmt.Errorf("update affected %d documents, want 1", n),
				}
			}
			updated++
		}

		marker := docstore.Marker{MigrationID: m.ID, Name: m.Name, AppliedAt: time.Now().UTC()}
		if err := r.store.InsertMarker(ctx, marker); err != nil {
			return &RunError{MigrationID: m.ID, MigrationName: m.Name, Err: err}
		}
		r.log.Info().
			Str("migration", m.Name).
			Int("scanned", len(records)).
			Int("updated", updated).
			Msg("migration applied")
	}
	return nil
}
