package interaction

import (
	"testing"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPress_String(t *testing.T) {
	tests := []struct {
		in   KeyPress
		want string
	}{
		{KeyPress{Key: "a"}, "a"},
		{KeyPress{Key: "ctrl+a"}, "ctrl+a"},
		{KeyPress{Key: "a", Mods: ModCtrl}, "ctrl+a"},
		{KeyPress{Key: "d", Mods: ModMeta}, "ctrl+d"},
		{KeyPress{Key: "tab", Mods: ModShift}, "shift+tab"},
		{KeyPress{Key: "A", Mods: ModShift}, "A"},
		{KeyPress{Key: "l", Mods: ModCtrl | ModShift}, "ctrl+L"},
		{KeyPress{Key: "t", Mods: ModMeta | ModShift}, "ctrl+T"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestCommands(t *testing.T) {
	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		_, ok := f.store.AddConnection(f.a, f.b, 0, 0, graph.Sequential)
		require.True(t, ok)
		f.store.Select(f.a)

		require.True(t, f.m.Handle(KeyPress{Key: "delete"}))
		assert.False(t, f.store.Has(f.a))
		assert.Empty(t, f.store.Connections())
		assert.Empty(t, f.store.Selected())
		require.Len(t, f.commits, 1)
		assert.Equal(t, CommitDelete, f.commits[0].Kind)

		assert.False(t, f.m.Handle(KeyPress{Key: "backspace"}), "nothing selected")
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t)
		f.store.Select(f.a)

		require.True(t, f.m.Handle(KeyPress{Key: "d", Mods: ModCtrl}))
		assert.Equal(t, 3, f.store.Len())
		sel := f.store.Selected()
		require.Len(t, sel, 1)
		n, _ := f.store.Node(sel[0])
		assert.Equal(t, geom.Pt(50, 50), n.Position())
	})

	t.Run("select all and clear", func(t *testing.T) {
		f := newFixture(t)
		f.m.Handle(KeyPress{Key: "ctrl+a"})
		assert.Len(t, f.store.Selected(), 2)

		f.m.Handle(KeyPress{Key: "esc"})
		assert.Empty(t, f.store.Selected())
	})

	t.Run("escape cancels gesture", func(t *testing.T) {
		f := newFixture(t)
		f.m.Handle(down(10, 10))
		f.m.Handle(move(60, 10))
		f.m.Handle(KeyPress{Key: "esc"})

		assert.Equal(t, Idle, f.m.State())
		assert.Equal(t, geom.Pt(0, 0), f.pos(f.a))
		assert.Empty(t, f.store.Selected())
	})

	t.Run("save", func(t *testing.T) {
		f := newFixture(t)
		f.m.Handle(KeyPress{Key: "s", Mods: ModCtrl})
		assert.Equal(t, 1, f.saves)
	})

	t.Run("zoom", func(t *testing.T) {
		f := newFixture(t)
		f.m.Handle(KeyPress{Key: "=", Mods: ModCtrl})
		assert.InDelta(t, 1.2, f.view.Zoom(), 1e-9)
		f.m.Handle(KeyPress{Key: "-", Mods: ModCtrl})
		assert.InDelta(t, 1.0, f.view.Zoom(), 1e-9)
		f.m.Handle(KeyPress{Key: "=", Mods: ModCtrl})
		f.m.Handle(KeyPress{Key: "0", Mods: ModCtrl})
		assert.Equal(t, 1.0, f.view.Zoom())
	})

	t.Run("fit", func(t *testing.T) {
		f := newFixture(t)
		f.view.PanBy(500, 500)
		f.m.Handle(KeyPress{Key: "f"})
		// content 0..600 x 0..80 padded by 100 -> 800 x 280 fits at zoom 1
		assert.Equal(t, 1.0, f.view.Zoom())
		assert.True(t, f.view.WorldToScreen(geom.Pt(300, 40)).Near(f.view.Center(), 1e-9))
	})

	t.Run("tools", func(t *testing.T) {
		f := newFixture(t)
		f.m.Handle(KeyPress{Key: "h"})
		assert.Equal(t, ToolHand, f.m.Tool())
		f.m.Handle(KeyPress{Key: "c"})
		assert.Equal(t, ToolConnection, f.m.Tool())
		f.m.Handle(KeyPress{Key: "v"})
		assert.Equal(t, ToolSelect, f.m.Tool())
	})

	t.Run("align", func(t *testing.T) {
		f := newFixture(t)
		f.store.SetPositions(map[graph.NodeID]geom.Point{f.b: geom.Pt(400, 100)})
		f.store.Select(f.a, f.b)

		require.True(t, f.m.Handle(KeyPress{Key: "t", Mods: ModCtrl | ModShift}))
		assert.Equal(t, geom.Pt(400, 0), f.pos(f.b))
		require.Len(t, f.commits, 1)
		assert.Equal(t, CommitAlign, f.commits[0].Kind)
		assert.Equal(t, []graph.NodeID{f.a, f.b}, f.commits[0].Nodes)

		require.True(t, f.m.Handle(KeyPress{Key: "ctrl+shift+l"}))
		assert.Equal(t, geom.Pt(0, 0), f.pos(f.b))

		require.True(t, f.m.Handle(KeyPress{Key: "r", Mods: ModAlt}))
		assert.Equal(t, geom.Pt(0, 0), f.pos(f.a), "both already share the right edge")
		assert.Len(t, f.commits, 2, "a no-op alignment commits nothing")

		f.store.Select(f.a)
		assert.False(t, f.m.Handle(KeyPress{Key: "alt+b"}), "one node cannot be aligned")
	})

	t.Run("distribute", func(t *testing.T) {
		f := newFixture(t)
		n, err := f.store.AddNode(&palette.Template{ID: "task", Category: "data"}, geom.Pt(1000, 0))
		require.NoError(t, err)
		f.store.Select(f.a, f.b)
		assert.False(t, f.m.Handle(KeyPress{Key: "h", Mods: ModCtrl | ModShift}), "needs three nodes")

		f.store.Select(f.a, f.b, n.ID)
		require.True(t, f.m.Handle(KeyPress{Key: "h", Mods: ModCtrl | ModShift}))
		// span 0..1200 with three 200-wide nodes leaves gaps of 300
		assert.Equal(t, geom.Pt(500, 0), f.pos(f.b))
		require.Len(t, f.commits, 1)
		assert.Equal(t, CommitAlign, f.commits[0].Kind)

		require.True(t, f.m.Handle(KeyPress{Key: "alt+v"}))
		assert.Len(t, f.commits, 1, "same row, nothing to move")
	})

	t.Run("toggle snap", func(t *testing.T) {
		f := newFixture(t)
		changes := 0
		f.m.SetHooks(Hooks{OnChange: func() { changes++ }})
		require.False(t, f.m.Snap())

		require.True(t, f.m.Handle(KeyPress{Key: "g"}))
		assert.True(t, f.m.Snap())
		assert.Equal(t, 1, changes)

		f.m.Handle(down(10, 10))
		f.m.Handle(move(21, 19))
		f.m.Handle(up(21, 19))
		assert.Equal(t, geom.Pt(20, 0), f.pos(f.a))

		f.m.Handle(KeyPress{Key: "g"})
		assert.False(t, f.m.Snap())
		f.m.Handle(down(30, 10))
		f.m.Handle(move(33, 19))
		f.m.Handle(up(33, 19))
		assert.Equal(t, geom.Pt(23, 9), f.pos(f.a))
	})

	t.Run("unbound key ignored", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.m.Handle(KeyPress{Key: "q"}))
	})
}

func TestCommands_SuppressedInTextField(t *testing.T) {
	f := newFixture(t)
	f.store.Select(f.a)

	f.m.Handle(Focus{TextField: true})
	require.True(t, f.m.TextFocus())

	for _, k := range []KeyPress{
		{Key: "delete"},
		{Key: "backspace"},
		{Key: "d", Mods: ModCtrl},
		{Key: "a", Mods: ModCtrl},
		{Key: "esc"},
		{Key: "s", Mods: ModCtrl},
		{Key: "=", Mods: ModCtrl},
		{Key: "h"},
		{Key: "g"},
		{Key: "l", Mods: ModCtrl | ModShift},
	} {
		assert.False(t, f.m.Handle(k), "key %s should be suppressed", k)
	}

	assert.True(t, f.store.Has(f.a))
	assert.Equal(t, 2, f.store.Len())
	assert.Equal(t, []graph.NodeID{f.a}, f.store.Selected())
	assert.Equal(t, 0, f.saves)
	assert.Equal(t, 1.0, f.view.Zoom())
	assert.Equal(t, ToolSelect, f.m.Tool())
	assert.False(t, f.m.Snap())

	f.m.Handle(Focus{TextField: false})
	assert.True(t, f.m.Handle(KeyPress{Key: "delete"}))
	assert.False(t, f.store.Has(f.a))
}

func TestStructuralCommandsIgnoredMidGesture(t *testing.T) {
	f := newFixture(t)
	f.store.Select(f.a)
	f.m.Handle(down(10, 10))

	assert.False(t, f.m.Handle(KeyPress{Key: "delete"}))
	assert.True(t, f.store.Has(f.a))

	f.store.Select(f.a, f.b)
	assert.False(t, f.m.Handle(KeyPress{Key: "ctrl+shift+t"}))
}
