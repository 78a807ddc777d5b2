package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

var postgresQueries = recordQueries{
	all: `SELECT page_id, vector, fingerprint, model, updated_at
		FROM page_embeddings ORDER BY page_id`,
	get: `SELECT page_id, vector, fingerprint, model, updated_at
		FROM page_embeddings WHERE page_id = $1`,
	upsert: `INSERT INTO page_embeddings (page_id, vector, dimensions, fingerprint, model, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (page_id) DO UPDATE SET
			vector = EXCLUDED.vector,
			dimensions = EXCLUDED.dimensions,
			fingerprint = EXCLUDED.fingerprint,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at`,
	delete: `DELETE FROM page_embeddings WHERE page_id = $1`,
	count:  `SELECT COUNT(*) FROM page_embeddings`,
}

// PostgresDB stores page embeddings in Postgres using the pgvector
// extension. The vector column is unconstrained so records from models
// of different sizes can coexist.
type PostgresDB struct {
	recordTable
}

// OpenPostgres connects to dsn and creates the schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	schema := `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS page_embeddings (
			page_id TEXT PRIMARY KEY,
			vector vector NOT NULL,
			dimensions INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			model TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresDB{recordTable{db: db, q: postgresQueries}}, nil
}
