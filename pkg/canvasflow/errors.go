package canvasflow

import (
	"fmt"
	"log/slog"
	"time"
)

// PersistenceError reports a failed save or load. The in-memory graph is
// left as it was.
type PersistenceError struct {
	// Op is "save" or "load".
	Op string
	// GraphID is the session graph.
	GraphID string
	// Err is the store error.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s graph %s: %v", e.Op, e.GraphID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Notice is a non-blocking message for the host, such as a status line.
type Notice struct {
	Level   slog.Level
	Op      string
	Message string
	Err     error
	At      time.Time
}
