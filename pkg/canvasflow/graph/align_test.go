package graph

import (
	"testing"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignNodes(t *testing.T) {
	// a is 200x80 at (0,0); b is resized to 100x40 at (300,200).
	tests := []struct {
		mode  Align
		wantA geom.Point
		wantB geom.Point
		moved int
	}{
		{AlignLeft, geom.Pt(0, 0), geom.Pt(0, 200), 1},
		{AlignRight, geom.Pt(200, 0), geom.Pt(300, 200), 1},
		{AlignCenterH, geom.Pt(100, 0), geom.Pt(150, 200), 2},
		{AlignTop, geom.Pt(0, 0), geom.Pt(300, 0), 1},
		{AlignBottom, geom.Pt(0, 160), geom.Pt(300, 200), 1},
		{AlignCenterV, geom.Pt(0, 80), geom.Pt(300, 100), 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s := NewStore()
			a := addAt(t, s, 0, 0)
			b := addAt(t, s, 300, 200)
			s.nodes[b].Width, s.nodes[b].Height = 100, 40
			rev := s.Revision()

			moved := s.AlignNodes([]NodeID{a, b, 99}, tt.mode)
			pos := s.Positions([]NodeID{a, b})
			assert.Equal(t, tt.wantA, pos[a])
			assert.Equal(t, tt.wantB, pos[b])
			assert.Equal(t, tt.moved, moved)
			assert.Greater(t, s.Revision(), rev)
			assertIntegrity(t, s)
		})
	}
}

func TestAlignNodes_NeedsTwoNodes(t *testing.T) {
	s := NewStore()
	a := addAt(t, s, 10, 10)
	b := addAt(t, s, 50, 50)
	rev := s.Revision()

	assert.Zero(t, s.AlignNodes([]NodeID{a}, AlignLeft))
	assert.Zero(t, s.AlignNodes([]NodeID{a, a}, AlignRight))
	assert.Zero(t, s.AlignNodes([]NodeID{a, b}, Align("diagonal")))
	assert.Equal(t, geom.Pt(10, 10), s.Positions([]NodeID{a})[a])
	assert.Equal(t, rev, s.Revision())
}

func TestDistributeNodes(t *testing.T) {
	t.Run("horizontal equal gaps", func(t *testing.T) {
		s := NewStore()
		a := addAt(t, s, 0, 0)
		c := addAt(t, s, 1000, 30)
		b := addAt(t, s, 250, 60)
		s.nodes[b].Width = 100

		// span 0..1200, widths 200+100+200, two gaps of 350
		moved := s.DistributeNodes([]NodeID{c, a, b}, Horizontal)
		assert.Equal(t, 1, moved)
		pos := s.Positions([]NodeID{a, b, c})
		assert.Equal(t, geom.Pt(0, 0), pos[a])
		assert.Equal(t, geom.Pt(550, 60), pos[b])
		assert.Equal(t, geom.Pt(1000, 30), pos[c])
	})

	t.Run("vertical", func(t *testing.T) {
		s := NewStore()
		ids := []NodeID{addAt(t, s, 5, 0), addAt(t, s, 5, 100), addAt(t, s, 5, 130), addAt(t, s, 5, 600)}

		// span 0..680, heights 4*80, three gaps of 120
		s.DistributeNodes(ids, Vertical)
		pos := s.Positions(ids)
		assert.Equal(t, geom.Pt(5, 0), pos[ids[0]])
		assert.Equal(t, geom.Pt(5, 200), pos[ids[1]])
		assert.Equal(t, geom.Pt(5, 400), pos[ids[2]])
		assert.Equal(t, geom.Pt(5, 600), pos[ids[3]])
	})

	t.Run("needs three nodes", func(t *testing.T) {
		s := NewStore()
		a, b := addAt(t, s, 0, 0), addAt(t, s, 900, 0)
		assert.Zero(t, s.DistributeNodes([]NodeID{a, b, 42}, Horizontal))
		assert.Zero(t, s.DistributeNodes([]NodeID{a, b, b}, Vertical))
	})
}

func TestSnapToGrid(t *testing.T) {
	s := NewStore()
	a := addAt(t, s, 9, 11)
	b := addAt(t, s, 40, -29)
	c := addAt(t, s, 33, 47)

	moved := s.SnapToGrid([]NodeID{a, b, 404}, 0)
	require.Equal(t, 2, moved)
	pos := s.Positions([]NodeID{a, b, c})
	assert.Equal(t, geom.Pt(0, 20), pos[a])
	assert.Equal(t, geom.Pt(40, -20), pos[b])
	assert.Equal(t, geom.Pt(33, 47), pos[c], "unlisted nodes are untouched")

	s.SnapToGrid([]NodeID{c}, 25)
	assert.Equal(t, geom.Pt(25, 50), s.Positions([]NodeID{c})[c])
}
