package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
)

// NodeID identifies a node within a Store.
type NodeID int64

// String returns the id in the "node-N" form used in logs and payloads.
func (id NodeID) String() string {
	return "node-" + strconv.FormatInt(int64(id), 10)
}

// ParseNodeID reads an id written as "node-N" or as a bare integer.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(s, "node-"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNodeID, s)
	}
	return NodeID(n), nil
}

// UnmarshalJSON accepts a JSON number or a string in ParseNodeID form.
// Ids are always written as numbers.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := ParseNodeID(s)
		if err != nil {
			return err
		}
		*id = n
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidNodeID, data)
	}
	*id = NodeID(n)
	return nil
}

// ConnectionID identifies a connection within a Store.
type ConnectionID int64

// String returns the id in the "conn-N" form.
func (id ConnectionID) String() string {
	return "conn-" + strconv.FormatInt(int64(id), 10)
}

// Status is the operator-facing progress of a node.
type Status string

// Node statuses.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ConnectionType tags the meaning of a connection.
type ConnectionType string

// Connection types.
const (
	Sequential ConnectionType = "sequential"
	Dependency ConnectionType = "dependency"
	Reference  ConnectionType = "reference"
	Dataflow   ConnectionType = "dataflow"
)

// Valid reports whether t is a known connection type.
func (t ConnectionType) Valid() bool {
	switch t {
	case Sequential, Dependency, Reference, Dataflow:
		return true
	}
	return false
}

// Node is a typed unit of work placed on the canvas.
type Node struct {
	ID          NodeID         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory string         `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	X           float64        `json:"x" yaml:"x"`
	Y           float64        `json:"y" yaml:"y"`
	Width       float64        `json:"width" yaml:"width"`
	Height      float64        `json:"height" yaml:"height"`
	Color       string         `json:"color,omitempty" yaml:"color,omitempty"`
	Icon        string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Status      Status         `json:"status" yaml:"status"`
	Progress    int            `json:"progress,omitempty" yaml:"progress,omitempty"`
	Title       string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Layer       int            `json:"layer" yaml:"layer"`
}

// Bounds returns the node rectangle in world coordinates.
func (n Node) Bounds() geom.Rect {
	return geom.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height}
}

// Position returns the top-left corner.
func (n Node) Position() geom.Point {
	return geom.Pt(n.X, n.Y)
}

// Label returns the title, or the type when the node is untitled.
func (n Node) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Type
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Properties = palette.CopyProperties(n.Properties)
	return n
}

// Connection is a directed edge. Target depends on Source.
type Connection struct {
	ID         ConnectionID   `json:"id" yaml:"id"`
	Source     NodeID         `json:"source" yaml:"source"`
	Target     NodeID         `json:"target" yaml:"target"`
	SourcePort int            `json:"source_port" yaml:"source_port"`
	TargetPort int            `json:"target_port" yaml:"target_port"`
	Type       ConnectionType `json:"type" yaml:"type"`
}

// String renders the connection as "node-1 -> node-2".
func (c Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.Source, c.Target)
}

// samePorts reports whether c and o join the same ports of the same nodes.
func (c Connection) samePorts(o Connection) bool {
	return c.Source == o.Source && c.Target == o.Target &&
		c.SourcePort == o.SourcePort && c.TargetPort == o.TargetPort
}
