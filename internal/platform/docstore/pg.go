package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelog/carelog/internal/domain/encounter"
)

// PG stores encounter documents as JSONB rows, with migration markers in a
// sidecar table.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG returns a Postgres-backed store.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// EnsureSchema creates the store's tables if they do not already exist.
func (s *PG) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS encounter_record (
    id  TEXT PRIMARY KEY,
    doc JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS migration_marker (
    migration_id UUID PRIMARY KEY,
    name         TEXT NOT NULL,
    applied_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("ensure docstore schema: %w", err)
	}
	return nil
}

func (s *PG) Find(ctx context.Context, q Query) ([]encounter.Record, error) {
	where, args := buildWhere(q)
	rows, err := s.pool.Query(ctx, `SELECT doc FROM encounter_record`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer rows.Close()

	var out []encounter.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec encounter.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *PG) UpdateOne(ctx context.Context, id string, rec encounter.Record) (int, error) {
	rec.ID = id
	doc, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("encode record %s: %w", id, err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE encounter_record SET doc = $2 WHERE id = $1`, id, doc)
	if err != nil {
		return 0, fmt.Errorf("update record %s: %w", id, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PG) Insert(ctx context.Context, rec encounter.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("insert: record id is required")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO encounter_record (id, doc) VALUES ($1, $2)`, rec.ID, doc); err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PG) HasMarker(ctx context.Context, migrationID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM migration_marker WHERE migration_id = $1)`, migrationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check marker %s: %w", migrationID, err)
	}
	return exists, nil
}

func (s *PG) InsertMarker(ctx context.Context, m Marker) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO migration_marker (migration_id, name) VALUES ($1, $2)`,
		m.MigrationID, m.Name); err != nil {
		return fmt.Errorf("insert marker %s: %w", m.MigrationID, err)
	}
	return nil
}

// buildWhere translates a Query into JSONB path conditions that match the
// in-memory Query.Matches semantics.
func buildWhere(q Query) (string, []any) {
	if len(q) == 0 {
		return "", nil
	}

	var conds []string
	var args []any
	for path, want := range q {
		parts := strings.Split(path, ".")
		args = append(args, parts)
		pathArg := len(args)
		if _, missing := want.(missingSentinel); missing {
			conds = append(conds, fmt.Sprintf(
				"(doc #>> $%d::text[] IS NULL OR doc #>> $%d::text[] = '')", pathArg, pathArg))
			continue
		}
		args = append(args, fmt.Sprint(want))
		conds = append(conds, fmt.Sprintf("doc #>> $%d::text[] = $%d", pathArg, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
