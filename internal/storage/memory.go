package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in a map. Records are copied on the way in
// and out so callers cannot alias stored vectors.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// All returns every stored record ordered by page ID.
func (m *MemoryStore) All(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec.clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PageID < records[j].PageID
	})
	return records, nil
}

// Get returns the record for pageID, or nil if there is none.
func (m *MemoryStore) Get(_ context.Context, pageID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[pageID]
	if !ok {
		return nil, nil
	}
	rec = rec.clone()
	return &rec, nil
}

// Upsert inserts or replaces the record for rec.PageID.
func (m *MemoryStore) Upsert(_ context.Context, rec Record) error {
	if len(rec.Vector) == 0 {
		return fmt.Errorf("upserting embedding for %s: %w", rec.PageID, ErrEmptyVector)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.PageID] = rec.clone()
	return nil
}

// Delete removes the record for pageID if it exists.
func (m *MemoryStore) Delete(_ context.Context, pageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, pageID)
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
