// Package history stores execution results for later inspection.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultListLimit is the number of records List returns when limit <= 0.
const DefaultListLimit = 50

// Store persists execution records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a new record.
	// Returns ErrDuplicate if a record with the same ID exists.
	Append(ctx context.Context, rec Record) error

	// Get retrieves a record by execution ID.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (Record, error)

	// List returns up to limit records for a graph, newest first.
	// Returns an empty slice (not error) if the graph has no records.
	List(ctx context.Context, graphID string, limit int) ([]Record, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one stored execution. Data holds the encoded result document.
type Record struct {
	ID             string          `json:"execution_id"`
	GraphID        string          `json:"graph_id"`
	Status         string          `json:"status"`
	TotalNodes     int             `json:"total_nodes"`
	CompletedNodes int             `json:"completed_nodes"`
	FailedNodes    int             `json:"failed_nodes"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	DurationMs     int64           `json:"total_execution_time_ms"`
	Data           json.RawMessage `json:"result,omitempty"`
}

func (r Record) clone() Record {
	if r.Data != nil {
		r.Data = append(json.RawMessage(nil), r.Data...)
	}
	return r
}

func (r Record) validate() error {
	if r.ID == "" || r.GraphID == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("execution record not found")

	// ErrDuplicate indicates a record with the same ID already exists.
	ErrDuplicate = errors.New("execution record already exists")

	// ErrInvalidRecord indicates a record without an ID or graph ID.
	ErrInvalidRecord = errors.New("execution record requires id and graph id")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
