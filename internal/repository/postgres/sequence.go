package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"equiprent-backend/internal/repository"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next allocates the next contract sequence number for the tenant and
// year with an atomic upsert, so concurrent generations never reuse a
// value. Gaps from rolled-back callers are acceptable.
func (r *sequenceRepository) Next(ctx context.Context, tenantID string, year int) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contract_sequences (tenant_id, year, next_value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (tenant_id, year)
		 DO UPDATE SET next_value = contract_sequences.next_value + 1
		 RETURNING next_value`,
		tenantID, year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocate contract sequence: %w", err)
	}
	return next, nil
}
