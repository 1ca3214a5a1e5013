package palette

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for catalog construction and lookup.
var (
	// ErrTemplateNotFound indicates no template has the requested id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrDuplicateTemplate indicates two templates share an id.
	ErrDuplicateTemplate = errors.New("duplicate template id")

	// ErrInvalidTemplate indicates a template is missing required fields.
	ErrInvalidTemplate = errors.New("invalid template")
)

// Catalog is an ordered, read-only set of templates. It is safe for
// concurrent reads once built.
type Catalog struct {
	order []*Template
	byID  map[string]*Template
}

// NewCatalog builds a catalog, compiling every template schema. Template ids
// must be unique and non-empty. Default properties must satisfy the
// template's own schema.
func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Template, len(templates))}

	var errs []error
	for i := range templates {
		t := templates[i]
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%w: template %d has no id", ErrInvalidTemplate, i))
			continue
		}
		if _, exists := c.byID[t.ID]; exists {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.ID))
			continue
		}
		if t.Category == "" {
			t.Category = t.ID
		}
		if err := t.Compile(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.Validate(t.Defaults); err != nil {
			errs = append(errs, fmt.Errorf("defaults: %w", err))
			continue
		}
		tp := &t
		c.order = append(c.order, tp)
		c.byID[t.ID] = tp
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*Template, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	t, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return t, nil
}

// Has reports whether a template with id exists.
func (c *Catalog) Has(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Templates returns all templates in catalog order.
func (c *Catalog) Templates() []*Template {
	if c == nil {
		return nil
	}
	out := make([]*Template, len(c.order))
	copy(out, c.order)
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var cats []string
	for _, t := range c.order {
		if !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// ByCategory returns templates in category, in catalog order.
func (c *Catalog) ByCategory(category string) []*Template {
	if c == nil {
		return nil
	}
	var out []*Template
	for _, t := range c.order {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Search returns templates whose id, label or subcategory contains query,
// case-insensitively. An empty query matches everything.
func (c *Catalog) Search(query string) []*Template {
	if c == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Templates()
	}
	var out []*Template
	for _, t := range c.order {
		if strings.Contains(strings.ToLower(t.ID), q) ||
			strings.Contains(strings.ToLower(t.Label), q) ||
			strings.Contains(strings.ToLower(t.Subcategory), q) {
			out = append(out, t)
		}
	}
	return out
}
