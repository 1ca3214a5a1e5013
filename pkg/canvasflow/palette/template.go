// Package palette holds the catalog of node templates an operator can drop
// onto the canvas.
//
// A Template carries display metadata, default geometry and default
// properties, plus an optional JSON schema that constrains the property map
// of every node created from it. The graph store validates property edits
// against that schema.
package palette

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Default node geometry used when a template omits a size.
const (
	DefaultWidth  = 200.0
	DefaultHeight = 80.0
)

// ErrInvalidProperties indicates a property map failed schema validation.
var ErrInvalidProperties = errors.New("invalid node properties")

// Template describes one kind of node.
type Template struct {
	ID          string         `json:"id" yaml:"id"`
	Category    string         `json:"category" yaml:"category"`
	Subcategory string         `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string         `json:"color,omitempty" yaml:"color,omitempty"`
	Width       float64        `json:"width,omitempty" yaml:"width,omitempty"`
	Height      float64        `json:"height,omitempty" yaml:"height,omitempty"`
	Defaults    map[string]any `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`

	compiled *gojsonschema.Schema
}

// FieldError is a single schema violation.
type FieldError struct {
	Field       string
	Description string
}

// SchemaError lists every violation found for a template.
type SchemaError struct {
	TemplateID string
	Fields     []FieldError
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Description)
	}
	return fmt.Sprintf("template %s: %s", e.TemplateID, strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidProperties for errors.Is support.
func (e *SchemaError) Unwrap() error {
	return ErrInvalidProperties
}

// Size returns the template geometry, falling back to the defaults.
func (t *Template) Size() (width, height float64) {
	width, height = t.Width, t.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// DisplayLabel returns Label, or ID when no label is set.
func (t *Template) DisplayLabel() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// DefaultProperties returns a deep copy of the template defaults.
func (t *Template) DefaultProperties() map[string]any {
	return CopyProperties(t.Defaults)
}

// Compile prepares the schema. It is called by NewCatalog; calling it again
// is harmless.
func (t *Template) Compile() error {
	if t.compiled != nil || len(t.Schema) == 0 {
		return nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema))
	if err != nil {
		return fmt.Errorf("template %s: compile schema: %w", t.ID, err)
	}
	t.compiled = s
	return nil
}

// Validate checks props against the template schema. Templates without a
// schema accept any property map.
func (t *Template) Validate(props map[string]any) error {
	if len(t.Schema) == 0 {
		return nil
	}
	if err := t.Compile(); err != nil {
		return err
	}
	if props == nil {
		props = map[string]any{}
	}

	result, err := t.compiled.Validate(gojsonschema.NewGoLoader(props))
	if err != nil {
		return fmt.Errorf("template %s: validate: %w", t.ID, err)
	}
	if result.Valid() {
		return nil
	}

	serr := &SchemaError{TemplateID: t.ID}
	for _, re := range result.Errors() {
		serr.Fields = append(serr.Fields, FieldError{
			Field:       re.Field(),
			Description: re.Description(),
		})
	}
	sort.Slice(serr.Fields, func(i, j int) bool {
		return serr.Fields[i].Field < serr.Fields[j].Field
	})
	return serr
}

// CopyProperties deep-copies a property map. Nested maps and slices are
// copied; scalar values are shared.
func CopyProperties(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyProperties(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
