package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
)

// ErrCycleDetected indicates the graph has a dependency cycle and the
// scheduler was configured to reject it.
var ErrCycleDetected = errors.New("dependency cycle detected")

// CycleError lists the nodes left unordered by a cycle.
type CycleError struct {
	// Nodes are the unresolved nodes in input order.
	Nodes []graph.NodeID
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%v: %s", ErrCycleDetected, strings.Join(ids, ", "))
}

// Unwrap returns ErrCycleDetected for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
