package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists documents in a single table with a JSONB payload.
// Atomicity of a batch falls out of running every insert in one transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Schema creates the backing table. Applied by deploy tooling, exported so
// integration setups can run it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);`

// NewPostgresStore wraps an existing pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AtomicBatch(ctx context.Context, writes []*Write) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		payload, err := json.Marshal(w.Fields)
		if err != nil {
			return fmt.Errorf("encode document %s/%s: %w", w.Collection, w.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)`,
			w.Collection, w.ID, payload); err != nil {
			return fmt.Errorf("write document %s/%s: %w", w.Collection, w.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
