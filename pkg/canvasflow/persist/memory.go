package persist

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps graph state in memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
	closed bool
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State), now: time.Now}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, state State) error {
	state, err := prepare(state, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.states[state.GraphID] = state.clone()
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, graphID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return State{}, ErrStoreClosed
	}
	state, ok := m.states[graphID]
	if !ok {
		return State{}, ErrNotFound
	}
	return state.clone(), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, graphID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.states, graphID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.states = nil
	return nil
}
