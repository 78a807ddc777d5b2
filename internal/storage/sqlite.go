package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var sqliteQueries = recordQueries{
	all: `SELECT page_id, vector, fingerprint, model, updated_at
		FROM page_embeddings ORDER BY page_id`,
	get: `SELECT page_id, vector, fingerprint, model, updated_at
		FROM page_embeddings WHERE page_id = ?`,
	upsert: `INSERT INTO page_embeddings (page_id, vector, dimensions, fingerprint, model, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			fingerprint = excluded.fingerprint,
			model = excluded.model,
			updated_at = excluded.updated_at`,
	delete: `DELETE FROM page_embeddings WHERE page_id = ?`,
	count:  `SELECT COUNT(*) FROM page_embeddings`,
}

// DB wraps a SQLite database holding page embeddings.
type DB struct {
	recordTable
}

// OpenDB opens or creates a SQLite database at the given path. Parent
// directories are created as needed.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{recordTable{db: db, q: sqliteQueries}}, nil
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS page_embeddings (
			page_id TEXT PRIMARY KEY,
			vector TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			model TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}
