package graph

import (
	"testing"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
	"github.com/stretchr/testify/require"
)

// plainTemplate has no schema, default 200x80 geometry.
func plainTemplate(id string) *palette.Template {
	return &palette.Template{ID: id, Category: "data"}
}

// schemaTemplate requires "count" to be a non-negative integer.
func schemaTemplate() *palette.Template {
	return &palette.Template{
		ID:       "counter",
		Category: "data",
		Defaults: map[string]any{"count": 0},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"count": map[string]any{"type": "integer", "minimum": 0},
			},
			"additionalProperties": false,
		},
	}
}

// addAt adds a plain node with its top-left corner at (x, y).
func addAt(t *testing.T, s *Store, x, y float64) NodeID {
	t.Helper()
	n, err := s.AddNode(plainTemplate("task"), geom.Pt(x, y))
	require.NoError(t, err)
	return n.ID
}

// assertIntegrity checks every store invariant.
func assertIntegrity(t *testing.T, s *Store) {
	t.Helper()
	for _, c := range s.Connections() {
		require.True(t, s.Has(c.Source), "dangling source in %s", c)
		require.True(t, s.Has(c.Target), "dangling target in %s", c)
		require.NotEqual(t, c.Source, c.Target, "self connection %s", c)
	}
	for _, id := range s.Selected() {
		require.True(t, s.Has(id), "selection contains absent %s", id)
	}
}
