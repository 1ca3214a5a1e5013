package api

import (
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
)

// ExecuteRequest is the body of POST /api/workflow/execute.
type ExecuteRequest struct {
	GraphID     string              `json:"graph_id"`
	Nodes       []NodeRequest       `json:"nodes"`
	Connections []ConnectionRequest `json:"connections"`
}

// NodeRequest is one node of a submitted graph.
type NodeRequest struct {
	ID         graph.NodeID   `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"label,omitempty"`
	Properties map[string]any `json:"config,omitempty"`
}

// ConnectionRequest links two submitted nodes. An empty type is sequential.
type ConnectionRequest struct {
	From graph.NodeID         `json:"from"`
	To   graph.NodeID         `json:"to"`
	Type graph.ConnectionType `json:"type,omitempty"`
}

// Snapshot converts the request into the graph the scheduler runs.
func (r ExecuteRequest) Snapshot() graph.Snapshot {
	snap := graph.Snapshot{
		Nodes:       make([]graph.Node, len(r.Nodes)),
		Connections: make([]graph.Connection, len(r.Connections)),
	}
	for i, n := range r.Nodes {
		snap.Nodes[i] = graph.Node{ID: n.ID, Type: n.Type, Title: n.Title, Properties: n.Properties}
	}
	for i, c := range r.Connections {
		typ := c.Type
		if typ == "" {
			typ = graph.Sequential
		}
		snap.Connections[i] = graph.Connection{
			ID:     graph.ConnectionID(i + 1),
			Source: c.From,
			Target: c.To,
			Type:   typ,
		}
	}
	return snap
}

// ExecutionResponse wraps one execution.
type ExecutionResponse struct {
	Success   bool              `json:"success"`
	Execution *scheduler.Result `json:"execution"`
}

// ExecutionsResponse wraps an execution listing.
type ExecutionsResponse struct {
	Success    bool                `json:"success"`
	Executions []*scheduler.Result `json:"executions"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
