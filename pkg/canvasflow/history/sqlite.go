package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists execution records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite history store.
// The path should be a file path (e.g., "./history.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_executions (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			status TEXT NOT NULL,
			total_nodes INTEGER NOT NULL,
			completed_nodes INTEGER NOT NULL,
			failed_nodes INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			data BLOB
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_workflow_executions_graph
		ON workflow_executions(graph_id, started_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (
			id, graph_id, status, total_nodes, completed_nodes, failed_nodes,
			started_at, completed_at, duration_ms, data
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.GraphID, rec.Status, rec.TotalNodes, rec.CompletedNodes, rec.FailedNodes,
		rec.StartedAt.UnixNano(), rec.CompletedAt.UnixNano(), rec.DurationMs, []byte(rec.Data))
	if err != nil {
		return fmt.Errorf("append execution: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append execution: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, graph_id, status, total_nodes, completed_nodes, failed_nodes,
			started_at, completed_at, duration_ms, data
		FROM workflow_executions
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load execution: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, graphID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, graph_id, status, total_nodes, completed_nodes, failed_nodes,
			started_at, completed_at, duration_ms, data
		FROM workflow_executions
		WHERE graph_id = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, graphID, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return out, nil
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var started, completed int64
	var data []byte
	if err := row.Scan(&rec.ID, &rec.GraphID, &rec.Status, &rec.TotalNodes, &rec.CompletedNodes,
		&rec.FailedNodes, &started, &completed, &rec.DurationMs, &data); err != nil {
		return Record{}, err
	}
	rec.StartedAt = time.Unix(0, started).UTC()
	rec.CompletedAt = time.Unix(0, completed).UTC()
	if len(data) > 0 {
		rec.Data = data
	}
	return rec, nil
}
