package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type overrideRepoPG struct{ pool *pgxpool.Pool }

// NewOverrideRepoPG returns a Postgres-backed override repository.
func NewOverrideRepoPG(pool *pgxpool.Pool) OverrideRepository {
	return &overrideRepoPG{pool: pool}
}

// EnsureOverrideSchema creates the fix_override table if needed.
func EnsureOverrideSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fix_override (
    id             UUID PRIMARY KEY,
    unique_id      TEXT NOT NULL,
    date_of_birth  TEXT,
    mrn_swedish    TEXT,
    mrn_providence TEXT,
    accepted_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("ensure fix_override table: %w", err)
	}
	return nil
}

func (r *overrideRepoPG) List(ctx context.Context) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT unique_id, date_of_birth, mrn_swedish, mrn_providence
		FROM fix_override ORDER BY accepted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.UniqueID, &o.DateOfBirth, &o.MRNSwedish, &o.MRNProvidence); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return out, nil
}

func (r *overrideRepoPG) Add(ctx context.Context, o Override) error {
	if o.UniqueID == "" {
		return fmt.Errorf("override unique_id is required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fix_override (id, unique_id, date_of_birth, mrn_swedish, mrn_providence)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), o.UniqueID, o.DateOfBirth, o.MRNSwedish, o.MRNProvidence)
	if err != nil {
		return fmt.Errorf("add override for %s: %w", o.UniqueID, err)
	}
	return nil
}
