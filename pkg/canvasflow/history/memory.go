package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory history store for testing and single runs.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     int
	closed  bool
}

// storedRecord adds an insertion sequence used to break start-time ties.
type storedRecord struct {
	rec Record
	seq int
}

// NewMemoryStore creates a new in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]storedRecord),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, exists := m.records[rec.ID]; exists {
		return ErrDuplicate
	}

	m.seq++
	// Copy data to avoid retaining caller's slice
	m.records[rec.ID] = storedRecord{rec: rec.clone(), seq: m.seq}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	stored, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return stored.rec.clone(), nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, graphID string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var matches []storedRecord
	for _, stored := range m.records {
		if stored.rec.GraphID == graphID {
			matches = append(matches, stored)
		}
	}

	// Newest first
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.rec.StartedAt.Equal(b.rec.StartedAt) {
			return a.rec.StartedAt.After(b.rec.StartedAt)
		}
		return a.seq > b.seq
	})

	if n := listLimit(limit); len(matches) > n {
		matches = matches[:n]
	}
	out := make([]Record, len(matches))
	for i, stored := range matches {
		out[i] = stored.rec.clone()
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the total number of records across all graphs.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
