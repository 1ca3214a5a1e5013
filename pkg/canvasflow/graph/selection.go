package graph

import "github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"

// Select replaces the selection with the present ids among ids.
func (s *Store) Select(ids ...NodeID) {
	clear(s.selection)
	s.addSelection(ids)
	s.touch()
}

// AddToSelection adds the present ids among ids to the selection.
func (s *Store) AddToSelection(ids ...NodeID) {
	if s.addSelection(ids) {
		s.touch()
	}
}

func (s *Store) addSelection(ids []NodeID) bool {
	added := false
	for _, id := range ids {
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		if _, already := s.selection[id]; already {
			continue
		}
		s.selection[id] = struct{}{}
		added = true
	}
	return added
}

// Deselect removes ids from the selection.
func (s *Store) Deselect(ids ...NodeID) {
	removed := false
	for _, id := range ids {
		if _, ok := s.selection[id]; ok {
			delete(s.selection, id)
			removed = true
		}
	}
	if removed {
		s.touch()
	}
}

// ToggleSelection flips the selection state of id.
func (s *Store) ToggleSelection(id NodeID) {
	if s.IsSelected(id) {
		s.Deselect(id)
		return
	}
	s.AddToSelection(id)
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	if len(s.selection) == 0 {
		return
	}
	clear(s.selection)
	s.touch()
}

// SelectAll selects every node.
func (s *Store) SelectAll() {
	s.Select(s.order...)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id NodeID) bool {
	_, ok := s.selection[id]
	return ok
}

// SelectionLen returns the number of selected nodes.
func (s *Store) SelectionLen() int { return len(s.selection) }

// Selected returns the selected ids in ascending order.
func (s *Store) Selected() []NodeID {
	out := make([]NodeID, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

// SelectInRect selects every node whose bounds intersect r. Without
// additive the previous selection is replaced. It returns the ids hit by r.
func (s *Store) SelectInRect(r geom.Rect, additive bool) []NodeID {
	hit := s.NodesInRect(r)
	if additive {
		s.AddToSelection(hit...)
	} else {
		s.Select(hit...)
	}
	return hit
}
