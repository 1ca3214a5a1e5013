// Package persist saves and loads editor graph state.
//
// A State bundles a graph's nodes, connections and viewport with a format
// version. Stores keep one State per graph id; Save overwrites.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

// CurrentVersion is the state format written by Save.
const CurrentVersion = 1

// State is the persisted form of one graph.
type State struct {
	Version     int                `json:"version" yaml:"version"`
	GraphID     string             `json:"graph_id" yaml:"graph_id"`
	Nodes       []graph.Node       `json:"nodes" yaml:"nodes"`
	Connections []graph.Connection `json:"connections" yaml:"connections"`
	NextNodeID  graph.NodeID       `json:"next_node_id,omitempty" yaml:"next_node_id,omitempty"`
	Viewport    viewport.State     `json:"viewport" yaml:"viewport"`
	SavedAt     time.Time          `json:"saved_at" yaml:"saved_at"`
}

// NewState builds a State from a graph snapshot and viewport.
func NewState(graphID string, snap graph.Snapshot, view viewport.State) State {
	return State{
		Version:     CurrentVersion,
		GraphID:     graphID,
		Nodes:       snap.Nodes,
		Connections: snap.Connections,
		NextNodeID:  snap.NextNodeID,
		Viewport:    view,
	}
}

// Snapshot returns the graph part of the state.
func (s State) Snapshot() graph.Snapshot {
	return graph.Snapshot{Nodes: s.Nodes, Connections: s.Connections, NextNodeID: s.NextNodeID}
}

// Store persists graph state.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores state under state.GraphID, overwriting any previous save.
	Save(ctx context.Context, state State) error

	// Load retrieves the state for a graph.
	// Returns ErrNotFound if nothing was saved.
	Load(ctx context.Context, graphID string) (State, error)

	// Delete removes a graph's state. Returns nil if it doesn't exist.
	Delete(ctx context.Context, graphID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for persistence operations.
var (
	// ErrNotFound indicates no state was saved for the graph.
	ErrNotFound = errors.New("graph state not found")

	// ErrVersionMismatch indicates the stored format version is not supported.
	ErrVersionMismatch = errors.New("graph state version mismatch")

	// ErrInvalidGraphID indicates an empty graph id or one that is not a safe file name.
	ErrInvalidGraphID = errors.New("invalid graph id")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("graph store closed")
)

// VersionError reports an unsupported state version.
type VersionError struct {
	GraphID string
	Got     int
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	return fmt.Sprintf("graph %s: state version %d, want %d", e.GraphID, e.Got, CurrentVersion)
}

// Unwrap returns ErrVersionMismatch for errors.Is support.
func (e *VersionError) Unwrap() error {
	return ErrVersionMismatch
}

func validGraphID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidGraphID, id)
	}
	return nil
}

// prepare stamps version and save time before writing.
func prepare(state State, now time.Time) (State, error) {
	if err := validGraphID(state.GraphID); err != nil {
		return State{}, err
	}
	if state.Version == 0 {
		state.Version = CurrentVersion
	}
	if state.Version != CurrentVersion {
		return State{}, &VersionError{GraphID: state.GraphID, Got: state.Version}
	}
	if state.SavedAt.IsZero() {
		state.SavedAt = now.UTC()
	}
	return state, nil
}

func checkVersion(state State) (State, error) {
	if state.Version != CurrentVersion {
		return State{}, &VersionError{GraphID: state.GraphID, Got: state.Version}
	}
	return state, nil
}

// clone deep-copies the node slice so callers cannot alias stored state.
func (s State) clone() State {
	nodes := make([]graph.Node, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = n.Clone()
	}
	s.Nodes = nodes
	s.Connections = append([]graph.Connection(nil), s.Connections...)
	return s
}
