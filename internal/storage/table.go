package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// recordQueries holds the dialect-specific statements for page_embeddings.
type recordQueries struct {
	all    string
	get    string
	upsert string
	delete string
	count  string
}

// recordTable implements Store over a database/sql handle. Vectors travel
// in pgvector's text form, which SQLite keeps as TEXT and Postgres parses
// into its vector type.
type recordTable struct {
	db *sql.DB
	q  recordQueries
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var rec Record
	var vec pgvector.Vector
	var updated int64
	if err := s.Scan(&rec.PageID, &vec, &rec.Fingerprint, &rec.Model, &updated); err != nil {
		return Record{}, err
	}
	rec.Vector = vec.Slice()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

// All returns every stored record ordered by page ID.
func (t *recordTable) All(ctx context.Context) ([]Record, error) {
	rows, err := t.db.QueryContext(ctx, t.q.all)
	if err != nil {
		return nil, fmt.Errorf("listing embeddings: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return records, nil
}

// Get returns the record for pageID, or nil if there is none.
func (t *recordTable) Get(ctx context.Context, pageID string) (*Record, error) {
	rec, err := scanRecord(t.db.QueryRowContext(ctx, t.q.get, pageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting embedding for %s: %w", pageID, err)
	}
	return &rec, nil
}

// Upsert inserts or replaces the record for rec.PageID.
func (t *recordTable) Upsert(ctx context.Context, rec Record) error {
	if len(rec.Vector) == 0 {
		return fmt.Errorf("upserting embedding for %s: %w", rec.PageID, ErrEmptyVector)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err := t.db.ExecContext(ctx, t.q.upsert,
		rec.PageID, pgvector.NewVector(rec.Vector), len(rec.Vector),
		rec.Fingerprint, rec.Model, rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upserting embedding for %s: %w", rec.PageID, err)
	}
	return nil
}

// Delete removes the record for pageID if it exists.
func (t *recordTable) Delete(ctx context.Context, pageID string) error {
	if _, err := t.db.ExecContext(ctx, t.q.delete, pageID); err != nil {
		return fmt.Errorf("deleting embedding for %s: %w", pageID, err)
	}
	return nil
}

// Count returns the number of stored records.
func (t *recordTable) Count(ctx context.Context) (int, error) {
	var count int
	if err := t.db.QueryRowContext(ctx, t.q.count).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (t *recordTable) Close() error {
	return t.db.Close()
}
