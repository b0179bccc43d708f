package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
// Documents are stored as JSONB in a (service, env) keyed table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const getAllSQL = `
SELECT service, env, document, updated_at
FROM rulesets
WHERE env = $1
ORDER BY service`

// GetAll retrieves all rulesets for the given environment from the database.
func (p *PostgresStore) GetAll(ctx context.Context, env string) ([]Record, error) {
	rows, err := p.pool.Query(ctx, getAllSQL, env)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Service, &rec.Env, &rec.Document, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const getByServiceSQL = `
SELECT service, env, document, updated_at
FROM rulesets
WHERE service = $1 AND env = $2`

// GetByService retrieves the ruleset registered for a service from the database.
func (p *PostgresStore) GetByService(ctx context.Context, service, env string) (*Record, error) {
	var rec Record
	err := p.pool.QueryRow(ctx, getByServiceSQL, service, env).
		Scan(&rec.Service, &rec.Env, &rec.Document, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

const upsertSQL = `
INSERT INTO rulesets (service, env, document, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (service, env)
DO UPDATE SET document = EXCLUDED.document, updated_at = now()`

// Upsert creates or updates a ruleset in the database.
func (p *PostgresStore) Upsert(ctx context.Context, params UpsertParams) error {
	_, err := p.pool.Exec(ctx, upsertSQL, params.Service, params.Env, params.Document)
	return err
}

const deleteSQL = `DELETE FROM rulesets WHERE service = $1 AND env = $2`

// Delete removes a ruleset from the database.
func (p *PostgresStore) Delete(ctx context.Context, service, env string) error {
	_, err := p.pool.Exec(ctx, deleteSQL, service, env)
	return err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
