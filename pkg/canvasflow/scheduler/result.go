package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
)

// Status is the aggregate outcome of a run.
type Status string

// Run statuses.
const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPartial   Status = "partial"
)

// NodeStatus is the state of one node within a run.
type NodeStatus string

// Node statuses.
const (
	NodePending   NodeStatus = "pending"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeFailed    NodeStatus = "failed"
)

// NodeResult is the outcome of one node.
type NodeResult struct {
	NodeID      graph.NodeID  `json:"node_id"`
	Type        string        `json:"type"`
	Status      NodeStatus    `json:"status"`
	Output      any           `json:"output,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"-"`
	Wave        int           `json:"wave"`

	// Err is the executor failure. It is not serialised.
	Err error `json:"-"`
}

type nodeResultJSON NodeResult

// MarshalJSON adds execution_time_ms.
func (r NodeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		nodeResultJSON
		DurationMs int64 `json:"execution_time_ms"`
	}{nodeResultJSON(r), r.Duration.Milliseconds()})
}

// UnmarshalJSON reads execution_time_ms into Duration.
func (r *NodeResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		nodeResultJSON
		DurationMs int64 `json:"execution_time_ms"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = NodeResult(aux.nodeResultJSON)
	r.Duration = time.Duration(aux.DurationMs) * time.Millisecond
	return nil
}

// Result is the outcome of one graph execution.
type Result struct {
	ID             string         `json:"execution_id"`
	GraphID        string         `json:"graph_id"`
	Status         Status         `json:"status"`
	Mode           Mode           `json:"mode"`
	Nodes          []NodeResult   `json:"results"`
	Order          []graph.NodeID `json:"execution_order"`
	CycleFallback  []graph.NodeID `json:"cycle_fallback,omitempty"`
	TotalNodes     int            `json:"total_nodes"`
	CompletedNodes int            `json:"completed_nodes"`
	FailedNodes    int            `json:"failed_nodes"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at"`
	Duration       time.Duration  `json:"-"`
}

type resultJSON Result

// MarshalJSON adds total_execution_time_ms.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		resultJSON
		DurationMs int64 `json:"total_execution_time_ms"`
	}{resultJSON(r), r.Duration.Milliseconds()})
}

// UnmarshalJSON reads total_execution_time_ms into Duration.
func (r *Result) UnmarshalJSON(data []byte) error {
	var aux struct {
		resultJSON
		DurationMs int64 `json:"total_execution_time_ms"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Result(aux.resultJSON)
	r.Duration = time.Duration(aux.DurationMs) * time.Millisecond
	return nil
}

// Node returns the result for id.
func (r *Result) Node(id graph.NodeID) (NodeResult, bool) {
	for _, n := range r.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return NodeResult{}, false
}

// Failed returns the ids of failed nodes in result order.
func (r *Result) Failed() []graph.NodeID {
	var ids []graph.NodeID
	for _, n := range r.Nodes {
		if n.Status == NodeFailed {
			ids = append(ids, n.NodeID)
		}
	}
	return ids
}

// aggregate fills the counters and status from Nodes.
func (r *Result) aggregate() {
	r.TotalNodes = len(r.Nodes)
	r.CompletedNodes, r.FailedNodes = 0, 0
	for _, n := range r.Nodes {
		switch n.Status {
		case NodeCompleted:
			r.CompletedNodes++
		case NodeFailed:
			r.FailedNodes++
		}
	}
	switch {
	case r.FailedNodes == 0:
		r.Status = StatusCompleted
	case r.FailedNodes == r.TotalNodes:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}

// EncodeResult converts a result into a history record. The full result
// document is kept in Record.Data.
func EncodeResult(r *Result) (history.Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return history.Record{}, fmt.Errorf("encode result %s: %w", r.ID, err)
	}
	return history.Record{
		ID:             r.ID,
		GraphID:        r.GraphID,
		Status:         string(r.Status),
		TotalNodes:     r.TotalNodes,
		CompletedNodes: r.CompletedNodes,
		FailedNodes:    r.FailedNodes,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		DurationMs:     r.Duration.Milliseconds(),
		Data:           data,
	}, nil
}

// DecodeResult rebuilds a result from a history record. Records without a
// result document yield a summary with no node results.
func DecodeResult(rec history.Record) (*Result, error) {
	if len(rec.Data) == 0 {
		return &Result{
			ID:             rec.ID,
			GraphID:        rec.GraphID,
			Status:         Status(rec.Status),
			TotalNodes:     rec.TotalNodes,
			CompletedNodes: rec.CompletedNodes,
			FailedNodes:    rec.FailedNodes,
			StartedAt:      rec.StartedAt,
			CompletedAt:    rec.CompletedAt,
			Duration:       time.Duration(rec.DurationMs) * time.Millisecond,
		}, nil
	}
	var r Result
	if err := json.Unmarshal(rec.Data, &r); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", rec.ID, err)
	}
	return &r, nil
}
