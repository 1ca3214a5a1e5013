package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists graph state to SQLite, one JSON document per graph.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite graph store.
// The path should be a file path or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS graphs (
			graph_id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			saved_at INTEGER NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, state State) error {
	state, err := prepare(state, s.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (graph_id, version, saved_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(graph_id) DO UPDATE SET
			version = excluded.version,
			saved_at = excluded.saved_at,
			data = excluded.data
	`, state.GraphID, state.Version, state.SavedAt.UnixNano(), data)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, graphID string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return State{}, ErrStoreClosed
	}

	var version int
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT version, data FROM graphs WHERE graph_id = ?
	`, graphID).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	if version != CurrentVersion {
		return State{}, &VersionError{GraphID: graphID, Got: version}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse state: %w", err)
	}
	return checkVersion(state)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE graph_id = ?`, graphID); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
