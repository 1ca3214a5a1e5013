package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/interaction"
)

func newTestSession(t *testing.T) *canvasflow.Session {
	t.Helper()
	s := canvasflow.NewSession(canvasflow.WithGraphID("tui"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMouseEvent(t *testing.T) {
	s := newTestSession(t)
	surf := s.Surface()

	evt, ok := mouseEvent(tea.MouseMsg{X: 5, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, surf, 20)
	require.True(t, ok)
	assert.Equal(t, interaction.PointerDown{Pos: geom.Pt(55, 50), Button: interaction.ButtonLeft}, evt)

	evt, ok = mouseEvent(tea.MouseMsg{X: 5, Y: 3, Action: tea.MouseActionMotion, Shift: true}, surf, 20)
	require.True(t, ok)
	assert.Equal(t, interaction.PointerMove{Pos: geom.Pt(55, 50), Mods: interaction.ModShift}, evt)

	evt, ok = mouseEvent(tea.MouseMsg{X: 0, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}, surf, 20)
	require.True(t, ok)
	assert.Equal(t, interaction.PointerUp{Pos: geom.Pt(5, 10), Button: interaction.ButtonLeft}, evt)

	evt, ok = mouseEvent(tea.MouseMsg{X: 0, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp}, surf, 20)
	require.True(t, ok)
	assert.Equal(t, interaction.Wheel{Pos: geom.Pt(5, 10), DeltaY: -1}, evt)

	_, ok = mouseEvent(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, surf, 20)
	assert.False(t, ok, "header row")
	_, ok = mouseEvent(tea.MouseMsg{X: 0, Y: 21, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, surf, 20)
	assert.False(t, ok, "footer row")
}

func TestKeyEvent(t *testing.T) {
	assert.Equal(t, interaction.KeyPress{Key: "ctrl+s"}, keyEvent(tea.KeyMsg{Type: tea.KeyCtrlS}))
	assert.Equal(t, interaction.KeyPress{Key: "+"}, keyEvent(runes("+")))
	assert.Equal(t, interaction.KeyPress{Key: "delete"}, keyEvent(tea.KeyMsg{Type: tea.KeyDelete}))
}

func TestResizeEvent(t *testing.T) {
	s := newTestSession(t)
	evt, rows := resizeEvent(tea.WindowSizeMsg{Width: 80, Height: 24}, s.Surface())
	assert.Equal(t, 21, rows)
	assert.Equal(t, interaction.Resize{W: 800, H: 420}, evt)
}

func TestModel_AddAndDrag(t *testing.T) {
	s := newTestSession(t)
	m := newModel(s)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	w, h := s.Viewport().Size()
	require.Equal(t, 800.0, w)
	require.Equal(t, 420.0, h)

	m, _ = update(t, m, runes("a"))
	nodes := s.Store().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, 300.0, nodes[0].X)
	assert.Equal(t, 170.0, nodes[0].Y)
	assert.NotEmpty(t, m.canvas)

	m, _ = update(t, m, tea.MouseMsg{X: 40, Y: 11, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: 50, Y: 11, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	_, _ = update(t, m, tea.MouseMsg{X: 50, Y: 11, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	moved, _ := s.Store().Node(nodes[0].ID)
	assert.Equal(t, 400.0, moved.X)
	assert.Equal(t, interaction.Idle, s.Machine().State())
}

func TestModel_NextTemplate(t *testing.T) {
	s := newTestSession(t)
	m := newModel(s)
	require.Greater(t, len(m.templates), 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.selected)
	m, _ = update(t, m, runes("a"))
	nodes := s.Store().Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, m.templates[1].ID, nodes[0].Type)
	assert.Contains(t, m.View(), m.templates[1].DisplayLabel())
}

func TestModel_EditorKeysReachMachine(t *testing.T) {
	s := newTestSession(t)
	m := newModel(s)
	m, _ = update(t, m, runes("a"))
	require.Equal(t, 1, s.Store().Len())

	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, 0, s.Store().Len())
}

func TestModel_Execution(t *testing.T) {
	s := newTestSession(t)
	in, err := s.AddNode("text-input", geom.Pt(200, 200))
	require.NoError(t, err)
	out, err := s.AddNode("output", geom.Pt(600, 200))
	require.NoError(t, err)
	_, err = s.Connect(in.ID, out.ID, graph.Dataflow)
	require.NoError(t, err)

	m := newModel(s)
	m, cmd := update(t, m, runes("r"))
	assert.True(t, m.running)
	assert.NotNil(t, cmd)

	exec := <-s.ExecuteAsync(context.Background())
	m, _ = update(t, m, executionMsg(exec))
	assert.False(t, m.running)
	assert.Contains(t, m.status, "completed")
	got, _ := s.Store().Node(out.ID)
	assert.Equal(t, graph.StatusDone, got.Status)
}

func TestModel_Notice(t *testing.T) {
	s := newTestSession(t)
	m := newModel(s)
	m, cmd := update(t, m, noticeMsg(canvasflow.Notice{Message: "saved tui"}))
	assert.Contains(t, m.status, "saved tui")
	assert.NotNil(t, cmd, "waits for the next notice")
}

func TestModel_Quit(t *testing.T) {
	m := newModel(newTestSession(t))
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
