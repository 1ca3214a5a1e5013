package executor

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
)

// ErrInvalidExecutor indicates Register was called with an empty type or nil executor.
var ErrInvalidExecutor = errors.New("invalid executor")

// ExecutorError wraps an error returned (or a panic raised) by an executor.
type ExecutorError struct {
	// NodeID is the node being executed.
	NodeID graph.NodeID
	// Type is the dispatch key that selected the executor.
	Type string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor %s for %s: %v", e.Type, e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutorError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside an executor.
// It includes the stack trace for debugging.
type PanicError struct {
	// NodeID is the node whose executor panicked.
	NodeID graph.NodeID
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.NodeID, e.Value)
}
