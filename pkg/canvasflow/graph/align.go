package graph

import (
	"cmp"
	"math"
	"slices"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
)

// Align names an edge or center line of the selection bounds.
type Align string

// Alignment modes.
const (
	AlignLeft    Align = "left"
	AlignRight   Align = "right"
	AlignCenterH Align = "center-h"
	AlignTop     Align = "top"
	AlignBottom  Align = "bottom"
	AlignCenterV Align = "center-v"
)

// Axis is a layout direction.
type Axis int

// Axes.
const (
	Horizontal Axis = iota
	Vertical
)

// DefaultGrid is the snap grid spacing in world units.
const DefaultGrid = 20.0

// present returns the deduplicated nodes behind ids that exist.
func (s *Store) present(ids []NodeID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range dedupe(ids) {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) place(nodes []*Node, pos func(*Node) geom.Point) int {
	positions := make(map[NodeID]geom.Point, len(nodes))
	moved := 0
	for _, n := range nodes {
		p := pos(n)
		if p != n.Position() {
			moved++
		}
		positions[n.ID] = p
	}
	s.SetPositions(positions)
	return moved
}

// AlignNodes lines the nodes up against one edge or center line of their
// combined bounds. Fewer than two present nodes are left alone. It returns
// the number of nodes that moved.
func (s *Store) AlignNodes(ids []NodeID, mode Align) int {
	nodes := s.present(ids)
	if len(nodes) < 2 {
		return 0
	}
	rects := make([]geom.Rect, len(nodes))
	for i, n := range nodes {
		rects[i] = n.Bounds()
	}
	b, _ := geom.Bounds(rects...)

	var pos func(*Node) geom.Point
	switch mode {
	case AlignLeft:
		pos = func(n *Node) geom.Point { return geom.Pt(b.X, n.Y) }
	case AlignRight:
		pos = func(n *Node) geom.Point { return geom.Pt(b.X+b.W-n.Width, n.Y) }
	case AlignCenterH:
		pos = func(n *Node) geom.Point { return geom.Pt(b.X+(b.W-n.Width)/2, n.Y) }
	case AlignTop:
		pos = func(n *Node) geom.Point { return geom.Pt(n.X, b.Y) }
	case AlignBottom:
		pos = func(n *Node) geom.Point { return geom.Pt(n.X, b.Y+b.H-n.Height) }
	case AlignCenterV:
		pos = func(n *Node) geom.Point { return geom.Pt(n.X, b.Y+(b.H-n.Height)/2) }
	default:
		return 0
	}
	return s.place(nodes, pos)
}

// DistributeNodes spaces the nodes so the gaps between neighbours along axis
// are equal. The outermost nodes stay put. It needs at least three present
// nodes and returns the number of nodes that moved.
func (s *Store) DistributeNodes(ids []NodeID, axis Axis) int {
	nodes := s.present(ids)
	if len(nodes) < 3 {
		return 0
	}
	start := func(n *Node) float64 { return n.X }
	size := func(n *Node) float64 { return n.Width }
	if axis == Vertical {
		start = func(n *Node) float64 { return n.Y }
		size = func(n *Node) float64 { return n.Height }
	}
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return cmp.Or(cmp.Compare(start(a), start(b)), cmp.Compare(a.ID, b.ID))
	})

	first, last := nodes[0], nodes[len(nodes)-1]
	var total float64
	for _, n := range nodes {
		total += size(n)
	}
	span := start(last) + size(last) - start(first)
	gap := (span - total) / float64(len(nodes)-1)

	offsets := make(map[NodeID]float64, len(nodes))
	at := start(first)
	for _, n := range nodes[:len(nodes)-1] {
		offsets[n.ID] = at
		at += size(n) + gap
	}
	offsets[last.ID] = start(last)

	return s.place(nodes, func(n *Node) geom.Point {
		if axis == Vertical {
			return geom.Pt(n.X, offsets[n.ID])
		}
		return geom.Pt(offsets[n.ID], n.Y)
	})
}

// SnapToGrid rounds each node position to the nearest multiple of grid. A
// non-positive grid uses DefaultGrid. It returns the number of nodes that
// moved.
func (s *Store) SnapToGrid(ids []NodeID, grid float64) int {
	if grid <= 0 || math.IsNaN(grid) {
		grid = DefaultGrid
	}
	return s.place(s.present(ids), func(n *Node) geom.Point {
		return geom.Pt(snap(n.X, grid), snap(n.Y, grid))
	})
}

func snap(v, grid float64) float64 {
	return math.Round(v/grid) * grid
}
