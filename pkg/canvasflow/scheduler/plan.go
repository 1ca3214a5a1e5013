package scheduler

import (
	"sort"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
)

// Plan is the execution order derived from a snapshot.
type Plan struct {
	// Order lists every node. Resolved nodes come first in breadth-first
	// topological order, followed by Residual.
	Order []graph.NodeID

	// Waves groups the resolved nodes by the step at which their in-degree
	// reached zero. Nodes within a wave are in input order and do not
	// depend on each other.
	Waves [][]graph.NodeID

	// Residual holds nodes on or behind a cycle, in input order.
	Residual []graph.NodeID

	// Predecessors maps each node to its distinct upstream nodes, in
	// connection order.
	Predecessors map[graph.NodeID][]graph.NodeID
}

// HasCycle reports whether some nodes could not be ordered.
func (p Plan) HasCycle() bool {
	return len(p.Residual) > 0
}

// Stages returns Waves followed by one single-node stage per residual node.
func (p Plan) Stages() [][]graph.NodeID {
	stages := make([][]graph.NodeID, 0, len(p.Waves)+len(p.Residual))
	stages = append(stages, p.Waves...)
	for _, id := range p.Residual {
		stages = append(stages, []graph.NodeID{id})
	}
	return stages
}

// Order computes the execution plan for snap. Connections with an absent
// endpoint are ignored. The initial queue holds the zero in-degree nodes in
// input order; successors are released in connection order.
func Order(snap graph.Snapshot) Plan {
	index := snap.NodeIndex()
	inDegree := make(map[graph.NodeID]int, len(snap.Nodes))
	successors := make(map[graph.NodeID][]graph.NodeID, len(snap.Nodes))
	plan := Plan{Predecessors: make(map[graph.NodeID][]graph.NodeID, len(snap.Nodes))}

	seenPred := make(map[[2]graph.NodeID]bool)
	for _, c := range snap.Connections {
		if _, ok := index[c.Source]; !ok {
			continue
		}
		if _, ok := index[c.Target]; !ok {
			continue
		}
		successors[c.Source] = append(successors[c.Source], c.Target)
		inDegree[c.Target]++
		if key := [2]graph.NodeID{c.Source, c.Target}; !seenPred[key] {
			seenPred[key] = true
			plan.Predecessors[c.Target] = append(plan.Predecessors[c.Target], c.Source)
		}
	}

	var wave []graph.NodeID
	for _, n := range snap.Nodes {
		if inDegree[n.ID] == 0 {
			wave = append(wave, n.ID)
		}
	}

	placed := make(map[graph.NodeID]bool, len(snap.Nodes))
	for len(wave) > 0 {
		var next []graph.NodeID
		for _, id := range wave {
			plan.Order = append(plan.Order, id)
			placed[id] = true
			for _, succ := range successors[id] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		grouped := append([]graph.NodeID(nil), wave...)
		sort.SliceStable(grouped, func(i, j int) bool { return index[grouped[i]] < index[grouped[j]] })
		plan.Waves = append(plan.Waves, grouped)
		wave = next
	}

	for _, n := range snap.Nodes {
		if !placed[n.ID] {
			plan.Residual = append(plan.Residual, n.ID)
			plan.Order = append(plan.Order, n.ID)
		}
	}
	return plan
}
