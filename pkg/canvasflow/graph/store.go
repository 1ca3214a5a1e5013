package graph

import (
	"fmt"
	"sort"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
)

// DefaultDuplicateOffset is the world-space offset applied to duplicates.
var DefaultDuplicateOffset = geom.Pt(50, 50)

// Store owns the nodes, connections and selection of one graph.
type Store struct {
	nodes     map[NodeID]*Node
	order     []NodeID
	conns     map[ConnectionID]*Connection
	connOrder []ConnectionID
	selection map[NodeID]struct{}

	templates map[string]*palette.Template
	catalog   *palette.Catalog

	nextNode  NodeID
	nextConn  ConnectionID
	nextLayer int
	revision  uint64

	duplicateOffset geom.Point
}

// Option configures a Store.
type Option func(*Store)

// WithCatalog resolves property schemas for node types that were not added
// through AddNode, such as restored nodes.
func WithCatalog(c *palette.Catalog) Option {
	return func(s *Store) {
		s.catalog = c
	}
}

// WithDuplicateOffset overrides the duplicate offset.
func WithDuplicateOffset(d geom.Point) Option {
	return func(s *Store) {
		s.duplicateOffset = d
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:           make(map[NodeID]*Node),
		conns:           make(map[ConnectionID]*Connection),
		selection:       make(map[NodeID]struct{}),
		templates:       make(map[string]*palette.Template),
		nextNode:        1,
		nextConn:        1,
		duplicateOffset: DefaultDuplicateOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revision increases on every mutation, including selection changes.
func (s *Store) Revision() uint64 { return s.revision }

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.order) }

// ConnectionCount returns the number of connections.
func (s *Store) ConnectionCount() int { return len(s.connOrder) }

func (s *Store) touch() { s.revision++ }

func (s *Store) allocNode() NodeID {
	id := s.nextNode
	s.nextNode++
	return id
}

func (s *Store) allocLayer() int {
	l := s.nextLayer
	s.nextLayer++
	return l
}

// AddNode creates a node from tmpl with its top-left corner at position.
// Properties start as the template defaults. The node is placed on a new
// top layer.
func (s *Store) AddNode(tmpl *palette.Template, position geom.Point) (Node, error) {
	if tmpl == nil || tmpl.ID == "" {
		return Node{}, &InputError{Op: "add", Err: ErrInvalidTemplate}
	}
	props := tmpl.DefaultProperties()
	if err := tmpl.Validate(props); err != nil {
		return Node{}, &InputError{Op: "add", Err: fmt.Errorf("%w: %w", ErrInvalidProperty, err)}
	}

	w, h := tmpl.Size()
	n := &Node{
		ID:          s.allocNode(),
		Type:        tmpl.ID,
		Category:    tmpl.Category,
		Subcategory: tmpl.Subcategory,
		X:           position.X,
		Y:           position.Y,
		Width:       w,
		Height:      h,
		Color:       tmpl.Color,
		Icon:        tmpl.Icon,
		Status:      StatusTodo,
		Title:       tmpl.DisplayLabel(),
		Properties:  props,
		Layer:       s.allocLayer(),
	}
	s.templates[tmpl.ID] = tmpl
	s.insert(n)
	s.touch()
	return n.Clone(), nil
}

func (s *Store) insert(n *Node) {
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
}

// Node returns a copy of the node with id.
func (s *Store) Node(id NodeID) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Has reports whether id is present.
func (s *Store) Has(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns copies of all nodes ordered bottom layer first.
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Layer < out[j].Layer
	})
	return out
}

// NodeBounds returns the bounds of every node in insertion order.
func (s *Store) NodeBounds() []geom.Rect {
	out := make([]geom.Rect, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Bounds())
	}
	return out
}

// MoveNodes translates every named node by delta. Absent ids are ignored.
// It returns the number of nodes moved.
func (s *Store) MoveNodes(ids []NodeID, delta geom.Point) int {
	moved := 0
	for _, id := range dedupe(ids) {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		n.X += delta.X
		n.Y += delta.Y
		moved++
	}
	if moved > 0 && (delta.X != 0 || delta.Y != 0) {
		s.touch()
	}
	return moved
}

// SetPositions moves nodes to absolute positions. Absent ids are ignored.
func (s *Store) SetPositions(positions map[NodeID]geom.Point) {
	changed := false
	for id, p := range positions {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		if n.X != p.X || n.Y != p.Y {
			n.X, n.Y = p.X, p.Y
			changed = true
		}
	}
	if changed {
		s.touch()
	}
}

// Positions returns the current position of every present id.
func (s *Store) Positions(ids []NodeID) map[NodeID]geom.Point {
	out := make(map[NodeID]geom.Point, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out[id] = n.Position()
		}
	}
	return out
}

// DeleteNodes removes the named nodes, every connection touching any of
// them, and their selection entries. It returns the number of nodes removed.
func (s *Store) DeleteNodes(ids []NodeID) int {
	doomed := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.nodes[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	for id := range doomed {
		delete(s.nodes, id)
		delete(s.selection, id)
	}
	s.order = filterIDs(s.order, func(id NodeID) bool {
		_, gone := doomed[id]
		return !gone
	})

	kept := s.connOrder[:0]
	for _, cid := range s.connOrder {
		c := s.conns[cid]
		_, src := doomed[c.Source]
		_, dst := doomed[c.Target]
		if src || dst {
			delete(s.conns, cid)
			continue
		}
		kept = append(kept, cid)
	}
	s.connOrder = kept

	s.touch()
	return len(doomed)
}

// DuplicateNodes clones each present node at the duplicate offset with a
// fresh id and a new top layer. Connections among the originals are not
// copied. The duplicates become the selection and are returned in the
// originals' insertion order.
func (s *Store) DuplicateNodes(ids []NodeID) []Node {
	want := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var dups []Node
	for _, id := range s.order {
		if !want[id] {
			continue
		}
		src := s.nodes[id]
		c := src.Clone()
		c.ID = s.allocNode()
		c.X += s.duplicateOffset.X
		c.Y += s.duplicateOffset.Y
		c.Layer = s.allocLayer()
		cp := c
		s.insert(&cp)
		dups = append(dups, c.Clone())
	}
	if len(dups) == 0 {
		return nil
	}

	clear(s.selection)
	for _, n := range dups {
		s.selection[n.ID] = struct{}{}
	}
	s.touch()
	return dups
}

// BringToFront moves a node to a new top layer.
func (s *Store) BringToFront(id NodeID) error {
	n, ok := s.nodes[id]
	if !ok {
		return &InputError{Op: "bring_to_front", NodeID: id, Err: ErrNodeNotFound}
	}
	if n.Layer == s.nextLayer-1 {
		return nil
	}
	n.Layer = s.allocLayer()
	s.touch()
	return nil
}

// HitTest returns the topmost node whose bounds contain the world point p.
// A miss is reported with ok == false.
func (s *Store) HitTest(p geom.Point) (NodeID, bool) {
	var (
		best  *Node
		found bool
	)
	for _, id := range s.order {
		n := s.nodes[id]
		if !n.Bounds().Contains(p) {
			continue
		}
		if !found || n.Layer >= best.Layer {
			best = n
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best.ID, true
}

// NodesInRect returns, ascending, the ids of nodes whose bounds intersect r.
func (s *Store) NodesInRect(r geom.Rect) []NodeID {
	var out []NodeID
	for _, id := range s.order {
		if s.nodes[id].Bounds().Intersects(r) {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// CanConnect reports why a connection between src and dst would be
// rejected, or nil when it would be accepted on ports 0.
func (s *Store) CanConnect(src, dst NodeID) error {
	return s.canConnect(Connection{Source: src, Target: dst})
}

func (s *Store) canConnect(c Connection) error {
	if c.Source == c.Target {
		return ErrSelfConnection
	}
	if _, ok := s.nodes[c.Source]; !ok {
		return fmt.Errorf("source %s: %w", c.Source, ErrNodeNotFound)
	}
	if _, ok := s.nodes[c.Target]; !ok {
		return fmt.Errorf("target %s: %w", c.Target, ErrNodeNotFound)
	}
	for _, cid := range s.connOrder {
		if s.conns[cid].samePorts(c) {
			return ErrDuplicateConnection
		}
	}
	return nil
}

// AddConnection links src to dst. It is a silent no-op returning ok == false
// when src == dst, either node is absent, or the same ports are already
// connected. An empty type defaults to Sequential.
func (s *Store) AddConnection(src, dst NodeID, srcPort, dstPort int, typ ConnectionType) (Connection, bool) {
	if typ == "" {
		typ = Sequential
	}
	c := Connection{Source: src, Target: dst, SourcePort: srcPort, TargetPort: dstPort, Type: typ}
	if s.canConnect(c) != nil {
		return Connection{}, false
	}
	c.ID = s.nextConn
	s.nextConn++
	cp := c
	s.conns[c.ID] = &cp
	s.connOrder = append(s.connOrder, c.ID)
	s.touch()
	return c, true
}

// RemoveConnection deletes a connection by id.
func (s *Store) RemoveConnection(id ConnectionID) bool {
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	s.connOrder = filterConnIDs(s.connOrder, func(c ConnectionID) bool { return c != id })
	s.touch()
	return true
}

// Connections returns copies of all connections in creation order.
func (s *Store) Connections() []Connection {
	out := make([]Connection, 0, len(s.connOrder))
	for _, cid := range s.connOrder {
		out = append(out, *s.conns[cid])
	}
	return out
}

// ConnectionsOf returns every connection with id as source or target.
func (s *Store) ConnectionsOf(id NodeID) []Connection {
	var out []Connection
	for _, cid := range s.connOrder {
		c := s.conns[cid]
		if c.Source == id || c.Target == id {
			out = append(out, *c)
		}
	}
	return out
}

func dedupe(ids []NodeID) []NodeID {
	seen := make(map[NodeID]bool, len(ids))
	out := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func filterIDs(ids []NodeID, keep func(NodeID) bool) []NodeID {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

func filterConnIDs(ids []ConnectionID, keep func(ConnectionID) bool) []ConnectionID {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

func sortIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
