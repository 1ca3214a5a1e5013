package graph

import "fmt"

// Snapshot is an immutable deep copy of a graph. Nodes keep insertion order,
// which is the "input order" the scheduler uses for ties and cycle fallback.
//
// NextNodeID records the store's node counter so that ids issued and then
// deleted before a save stay retired after a restore. Zero means unknown.
type Snapshot struct {
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections"`
	NextNodeID  NodeID       `json:"next_node_id,omitempty" yaml:"next_node_id,omitempty"`
}

// Snapshot copies the current nodes and connections.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:       make([]Node, 0, len(s.order)),
		Connections: s.Connections(),
		NextNodeID:  s.nextNode,
	}
	for _, id := range s.order {
		snap.Nodes = append(snap.Nodes, s.nodes[id].Clone())
	}
	return snap
}

// NodeIndex returns a lookup from id to position in Nodes.
func (snap Snapshot) NodeIndex() map[NodeID]int {
	idx := make(map[NodeID]int, len(snap.Nodes))
	for i, n := range snap.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Validate reports the first node with a non-positive or repeated id and
// the first connection that is a self loop or names an absent node.
func (snap Snapshot) Validate() error {
	if err := snap.checkNodes("validate"); err != nil {
		return err
	}
	present := make(map[NodeID]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		present[n.ID] = true
	}
	for _, c := range snap.Connections {
		switch {
		case c.Source == c.Target:
			return &InputError{Op: "validate", NodeID: c.Source, Err: ErrSelfConnection}
		case !present[c.Source]:
			return &InputError{Op: "validate", NodeID: c.Source, Err: fmt.Errorf("%w: connection %s", ErrNodeNotFound, c)}
		case !present[c.Target]:
			return &InputError{Op: "validate", NodeID: c.Target, Err: fmt.Errorf("%w: connection %s", ErrNodeNotFound, c)}
		}
	}
	return nil
}

func (snap Snapshot) checkNodes(op string) error {
	seen := make(map[NodeID]bool, len(snap.Nodes))
	for i, n := range snap.Nodes {
		if n.ID <= 0 {
			return &InputError{Op: op, NodeID: n.ID, Err: fmt.Errorf("%w: node %d has id %d", ErrInvalidNodeID, i, int64(n.ID))}
		}
		if seen[n.ID] {
			return &InputError{Op: op, NodeID: n.ID, Err: ErrDuplicateNode}
		}
		seen[n.ID] = true
	}
	return nil
}

// Restore replaces the store contents with snap. Connections that would
// violate the store invariants are dropped and reported by count. The
// node and connection counters never move down: they resume above the
// highest id this store issued, the highest restored id and
// snap.NextNodeID. The selection is cleared.
func (s *Store) Restore(snap Snapshot) (dropped int, err error) {
	if err := snap.checkNodes("restore"); err != nil {
		return 0, err
	}

	s.nodes = make(map[NodeID]*Node, len(snap.Nodes))
	s.order = s.order[:0]
	s.conns = make(map[ConnectionID]*Connection, len(snap.Connections))
	s.connOrder = s.connOrder[:0]
	clear(s.selection)
	s.nextNode = max(s.nextNode, snap.NextNodeID)

	for _, n := range snap.Nodes {
		c := n.Clone()
		if !c.Status.Valid() {
			c.Status = StatusTodo
		}
		if c.Properties == nil {
			c.Properties = map[string]any{}
		}
		s.insert(&c)
		s.nextNode = max(s.nextNode, c.ID+1)
		s.nextLayer = max(s.nextLayer, c.Layer+1)
	}

	for _, c := range snap.Connections {
		s.nextConn = max(s.nextConn, c.ID+1)
		if c.Type == "" {
			c.Type = Sequential
		}
		if c.ID <= 0 || s.conns[c.ID] != nil || s.canConnect(c) != nil {
			dropped++
			continue
		}
		cp := c
		s.conns[c.ID] = &cp
		s.connOrder = append(s.connOrder, c.ID)
	}

	s.touch()
	return dropped, nil
}
