package store

import (
	"context"
	"database/sql"
)

// CounterRepository allocates monotonically increasing sequence values.
type CounterRepository struct {
	db *sql.DB
}

func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Next atomically increments the named counter and returns the new value.
// Concurrent callers observe distinct, strictly increasing values; the
// row-level upsert is the only mutation path, so no value is ever handed
// out twice.
func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	const query = `
		INSERT INTO counters (name, seq)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE
		SET seq = counters.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
