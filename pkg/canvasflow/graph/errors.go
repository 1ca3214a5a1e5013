package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for store mutations.
var (
	// ErrNodeNotFound indicates an operation referenced an absent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfConnection indicates a connection from a node to itself.
	ErrSelfConnection = errors.New("self connection")

	// ErrDuplicateConnection indicates the same ports are already connected.
	ErrDuplicateConnection = errors.New("duplicate connection")

	// ErrInvalidProperty indicates a property edit failed schema validation.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrInvalidStatus indicates an unknown node status.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTemplate indicates AddNode was called without a template.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrDuplicateNode indicates a snapshot holds two nodes with one id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrInvalidNodeID indicates a zero or negative node id.
	ErrInvalidNodeID = errors.New("invalid node id")
)

// InputError reports an invalid mutation argument.
type InputError struct {
	// Op is the store operation ("add", "set_property", "restore", ...).
	Op string
	// NodeID is the node concerned, zero when not applicable.
	NodeID NodeID
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.NodeID == 0 {
		return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("graph %s %s: %v", e.Op, e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InputError) Unwrap() error {
	return e.Err
}
