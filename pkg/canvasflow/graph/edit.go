package graph

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
)

func (s *Store) lookup(op string, id NodeID) (*Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, &InputError{Op: op, NodeID: id, Err: ErrNodeNotFound}
	}
	return n, nil
}

// template returns the template governing properties of nodeType, or nil.
func (s *Store) template(nodeType string) *palette.Template {
	if t, ok := s.templates[nodeType]; ok {
		return t
	}
	if s.catalog != nil {
		if t, err := s.catalog.Get(nodeType); err == nil {
			return t
		}
	}
	return nil
}

// SetTitle renames a node.
func (s *Store) SetTitle(id NodeID, title string) error {
	n, err := s.lookup("set_title", id)
	if err != nil {
		return err
	}
	n.Title = strings.TrimSpace(title)
	s.touch()
	return nil
}

// SetDescription replaces a node description.
func (s *Store) SetDescription(id NodeID, desc string) error {
	n, err := s.lookup("set_description", id)
	if err != nil {
		return err
	}
	n.Description = desc
	s.touch()
	return nil
}

// SetStatus changes a node status.
func (s *Store) SetStatus(id NodeID, status Status) error {
	n, err := s.lookup("set_status", id)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return &InputError{Op: "set_status", NodeID: id, Err: fmt.Errorf("%w: %q", ErrInvalidStatus, status)}
	}
	n.Status = status
	s.touch()
	return nil
}

// SetProgress sets a node progress, clamped to [0, 100].
func (s *Store) SetProgress(id NodeID, progress int) error {
	n, err := s.lookup("set_progress", id)
	if err != nil {
		return err
	}
	n.Progress = max(0, min(100, progress))
	s.touch()
	return nil
}

// SetProperty sets one property after validating the resulting map against
// the node type's schema. On failure the node is unchanged.
func (s *Store) SetProperty(id NodeID, key string, value any) error {
	n, err := s.lookup("set_property", id)
	if err != nil {
		return err
	}
	next := palette.CopyProperties(n.Properties)
	next[key] = value
	return s.applyProperties("set_property", n, next)
}

// DeleteProperty removes one property, subject to the same validation.
func (s *Store) DeleteProperty(id NodeID, key string) error {
	n, err := s.lookup("delete_property", id)
	if err != nil {
		return err
	}
	if _, ok := n.Properties[key]; !ok {
		return nil
	}
	next := palette.CopyProperties(n.Properties)
	delete(next, key)
	return s.applyProperties("delete_property", n, next)
}

// SetProperties replaces the whole property map.
func (s *Store) SetProperties(id NodeID, props map[string]any) error {
	n, err := s.lookup("set_properties", id)
	if err != nil {
		return err
	}
	return s.applyProperties("set_properties", n, palette.CopyProperties(props))
}

func (s *Store) applyProperties(op string, n *Node, props map[string]any) error {
	if t := s.template(n.Type); t != nil {
		if err := t.Validate(props); err != nil {
			return &InputError{Op: op, NodeID: n.ID, Err: fmt.Errorf("%w: %w", ErrInvalidProperty, err)}
		}
	}
	n.Properties = props
	s.touch()
	return nil
}
