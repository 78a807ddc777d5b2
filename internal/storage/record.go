// Package storage persists page embeddings in SQLite, Postgres, or memory.
package storage

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrEmptyVector is returned when a record without a vector is written.
var ErrEmptyVector = errors.New("embedding vector is empty")

// Record is the stored embedding of one page.
type Record struct {
	PageID      string    `json:"page_id"`
	Vector      []float32 `json:"-"`
	Fingerprint string    `json:"fingerprint"`
	Model       string    `json:"model"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Dimensions returns the length of the stored vector.
func (r Record) Dimensions() int {
	return len(r.Vector)
}

// clone returns a copy that shares no memory with r.
func (r Record) clone() Record {
	r.Vector = slices.Clone(r.Vector)
	return r
}

// Store is implemented by every embedding backend. Upsert is last write
// wins; Get returns nil without error when no record exists; Delete of a
// missing record is a no-op.
type Store interface {
	All(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, pageID string) (*Record, error)
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, pageID string) error
	Count(ctx context.Context) (int, error)
	Close() error
}
