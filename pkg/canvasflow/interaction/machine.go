// Package interaction implements the gesture state machine that turns
// pointer and keyboard input into Graph Store and Viewport mutations.
//
// Input arrives as Events pushed onto a Queue. Tick drains the queue once
// and handles each event in order on the caller's goroutine, so the machine
// can be driven deterministically in tests without any rendering harness.
//
// States: Idle, Panning, DraggingNodes, BoxSelecting and ConnectingFrom.
// A pointer-down only starts a gesture from Idle; a pointer-up only ends
// one. Anything else is a UI race and is ignored. Switching tools while a
// gesture is active cancels the gesture first:
//
//   - DraggingNodes: the dragged nodes return to their start positions;
//   - BoxSelecting: the box is discarded and the selection is unchanged;
//   - ConnectingFrom: no connection is created;
//   - Panning: the pan reached so far is kept.
package interaction

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

// State is the gesture state.
type State int

// Gesture states.
const (
	Idle State = iota
	Panning
	DraggingNodes
	BoxSelecting
	ConnectingFrom
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNodes:
		return "dragging"
	case BoxSelecting:
		return "box_selecting"
	case ConnectingFrom:
		return "connecting"
	}
	return "unknown"
}

// Tool is the active editing tool.
type Tool string

// Tools.
const (
	ToolSelect     Tool = "select"
	ToolHand       Tool = "hand"
	ToolConnection Tool = "connection"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolSelect || t == ToolHand || t == ToolConnection
}

// Wheel zoom factors.
const (
	wheelZoomIn  = 1.1
	wheelZoomOut = 0.9
)

// CommitKind names a committed structural change.
type CommitKind string

// Commit kinds.
const (
	CommitMove      CommitKind = "move"
	CommitConnect   CommitKind = "connect"
	CommitDelete    CommitKind = "delete"
	CommitDuplicate CommitKind = "duplicate"
	CommitAlign     CommitKind = "align"
)

// Commit describes a finished structural change.
type Commit struct {
	Kind  CommitKind
	Nodes []graph.NodeID
}

// Hooks are callbacks into the host. All are optional.
type Hooks struct {
	// OnSave runs for the save command.
	OnSave func()
	// OnCommit runs after a structural change is committed.
	OnCommit func(Commit)
	// OnChange runs when hover, tool or gesture overlay state changes.
	OnChange func()
}

// Machine is the interaction state machine. It is not safe for concurrent
// use; only its Queue is.
type Machine struct {
	store  *graph.Store
	view   *viewport.Controller
	queue  *Queue
	keymap Keymap
	hooks  Hooks
	logger *slog.Logger

	tool      Tool
	state     State
	textFocus bool

	snap bool
	grid float64

	pointer  geom.Point
	hover    graph.NodeID
	hovering bool

	// DraggingNodes
	dragIDs    []graph.NodeID
	dragOrigin map[graph.NodeID]geom.Point
	dragLast   geom.Point
	dragMoved  bool

	// BoxSelecting
	boxStart geom.Point
	boxEnd   geom.Point

	// ConnectingFrom
	connectFrom graph.NodeID
	connectEnd  geom.Point
}

// Option configures a Machine.
type Option func(*Machine)

// WithKeymap replaces the default keymap.
func WithKeymap(k Keymap) Option {
	return func(m *Machine) { m.keymap = k }
}

// WithHooks installs host callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithLogger sets a logger for ignored transitions and commits.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithQueue shares an existing queue.
func WithQueue(q *Queue) Option {
	return func(m *Machine) { m.queue = q }
}

// WithSnap turns snap to grid on. Dragged nodes land on multiples of grid;
// a non-positive grid uses graph.DefaultGrid.
func WithSnap(grid float64) Option {
	return func(m *Machine) {
		m.snap = true
		if grid > 0 {
			m.grid = grid
		}
	}
}

// WithTool sets the initial tool.
func WithTool(t Tool) Option {
	return func(m *Machine) {
		if t.Valid() {
			m.tool = t
		}
	}
}

// NewMachine creates a machine in Idle with the select tool.
func NewMachine(store *graph.Store, view *viewport.Controller, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		view:   view,
		keymap: DefaultKeymap(),
		tool:   ToolSelect,
		state:  Idle,
		grid:   graph.DefaultGrid,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.queue == nil {
		m.queue = NewQueue()
	}
	return m
}

// SetHooks replaces the host callbacks.
func (m *Machine) SetHooks(h Hooks) { m.hooks = h }

// Snap reports whether snap to grid is on.
func (m *Machine) Snap() bool { return m.snap }

// Grid returns the snap grid spacing.
func (m *Machine) Grid() float64 { return m.grid }

// SetSnap turns snap to grid on or off. It applies from the next drag.
func (m *Machine) SetSnap(on bool) {
	if m.snap == on {
		return
	}
	m.snap = on
	m.changed()
}

// Queue returns the input queue.
func (m *Machine) Queue() *Queue { return m.queue }

// Push enqueues events for the next Tick.
func (m *Machine) Push(events ...Event) { m.queue.Push(events...) }

// Tick drains the queue and handles every event in order. It returns the
// number of events that were not ignored.
func (m *Machine) Tick() int {
	handled := 0
	for _, evt := range m.queue.Drain() {
		if m.Handle(evt) {
			handled++
		}
	}
	return handled
}

// State returns the gesture state.
func (m *Machine) State() State { return m.state }

// Tool returns the active tool.
func (m *Machine) Tool() Tool { return m.tool }

// TextFocus reports whether keyboard focus is in a text field.
func (m *Machine) TextFocus() bool { return m.textFocus }

// Keymap returns the active keymap.
func (m *Machine) Keymap() Keymap { return m.keymap }

// Pointer returns the last known pointer position in screen coordinates.
func (m *Machine) Pointer() geom.Point { return m.pointer }

// Hovered returns the node under the pointer.
func (m *Machine) Hovered() (graph.NodeID, bool) {
	if !m.hovering || !m.store.Has(m.hover) {
		return 0, false
	}
	return m.hover, true
}

// SelectionBox returns the in-progress selection rectangle in world
// coordinates.
func (m *Machine) SelectionBox() (geom.Rect, bool) {
	if m.state != BoxSelecting {
		return geom.Rect{}, false
	}
	return geom.RectFromCorners(m.boxStart, m.boxEnd), true
}

// PendingConnection returns the source node and world-space end point of
// an in-progress connection.
func (m *Machine) PendingConnection() (graph.NodeID, geom.Point, bool) {
	if m.state != ConnectingFrom {
		return 0, geom.Point{}, false
	}
	return m.connectFrom, m.connectEnd, true
}

// Handle processes one event immediately. It reports false when the event
// was ignored.
func (m *Machine) Handle(evt Event) bool {
	var ok bool
	switch e := evt.(type) {
	case PointerDown:
		ok = m.pointerDown(e)
	case PointerMove:
		ok = m.pointerMove(e)
	case PointerUp:
		ok = m.pointerUp(e)
	case Wheel:
		ok = m.wheel(e)
	case KeyPress:
		ok = m.keyPress(e)
	case SwitchTool:
		ok = m.setTool(e.Tool)
	case Focus:
		m.textFocus = e.TextField
		ok = true
	case Resize:
		m.view.Resize(e.W, e.H)
		ok = e.W > 0 && e.H > 0
	}
	if !ok && m.logger != nil && evt != nil {
		m.logger.Debug("interaction event ignored",
			slog.String("event", evt.eventName()),
			slog.String("state", m.state.String()),
			slog.String("tool", string(m.tool)),
		)
	}
	return ok
}

func (m *Machine) pointerDown(e PointerDown) bool {
	m.pointer = e.Pos
	if m.state != Idle {
		return false
	}

	if m.tool == ToolHand || e.Button == ButtonMiddle || e.Mods.pan() {
		m.view.PanStart(e.Pos)
		m.enter(Panning)
		return true
	}
	if e.Button != ButtonLeft {
		return false
	}

	world := m.view.ScreenToWorld(e.Pos)
	hit, onNode := m.store.HitTest(world)

	switch m.tool {
	case ToolSelect:
		additive := e.Mods.multiSelect()
		if onNode {
			switch {
			case additive:
				m.store.AddToSelection(hit)
			case !m.store.IsSelected(hit):
				m.store.Select(hit)
			}
			m.beginDrag(world)
			return true
		}
		if !additive {
			m.store.ClearSelection()
		}
		m.boxStart, m.boxEnd = world, world
		m.enter(BoxSelecting)
		return true

	case ToolConnection:
		if !onNode {
			return false
		}
		m.connectFrom = hit
		m.connectEnd = world
		m.enter(ConnectingFrom)
		return true
	}
	return false
}

func (m *Machine) beginDrag(world geom.Point) {
	m.dragIDs = m.store.Selected()
	m.dragOrigin = m.store.Positions(m.dragIDs)
	m.dragLast = world
	m.dragMoved = false
	m.enter(DraggingNodes)
}

func (m *Machine) pointerMove(e PointerMove) bool {
	m.pointer = e.Pos
	world := m.view.ScreenToWorld(e.Pos)
	m.updateHover(world)

	switch m.state {
	case Panning:
		m.view.PanUpdate(e.Pos)
	case DraggingNodes:
		delta := world.Sub(m.dragLast)
		if m.store.MoveNodes(m.dragIDs, delta) > 0 && (delta.X != 0 || delta.Y != 0) {
			m.dragMoved = true
		}
		m.dragLast = world
	case BoxSelecting:
		m.boxEnd = world
		m.changed()
	case ConnectingFrom:
		m.connectEnd = world
		m.changed()
	}
	return true
}

func (m *Machine) updateHover(world geom.Point) {
	id, ok := m.store.HitTest(world)
	if ok == m.hovering && id == m.hover {
		return
	}
	m.hover, m.hovering = id, ok
	m.changed()
}

func (m *Machine) pointerUp(e PointerUp) bool {
	m.pointer = e.Pos
	world := m.view.ScreenToWorld(e.Pos)

	switch m.state {
	case Idle:
		return false

	case Panning:
		m.view.PanEnd()

	case DraggingNodes:
		if m.dragMoved {
			if m.snap {
				m.store.SnapToGrid(m.dragIDs, m.grid)
			}
			m.commit(Commit{Kind: CommitMove, Nodes: m.dragIDs})
		}

	case BoxSelecting:
		m.boxEnd = world
		m.store.SelectInRect(geom.RectFromCorners(m.boxStart, m.boxEnd), true)

	case ConnectingFrom:
		target, ok := m.store.HitTest(world)
		if ok && target != m.connectFrom {
			if _, created := m.store.AddConnection(m.connectFrom, target, 0, 0, graph.Sequential); created {
				m.commit(Commit{Kind: CommitConnect, Nodes: []graph.NodeID{m.connectFrom, target}})
			}
		}
	}

	m.resetGesture()
	m.enter(Idle)
	return true
}

func (m *Machine) wheel(e Wheel) bool {
	m.pointer = e.Pos
	switch {
	case e.DeltaY > 0:
		m.view.ZoomBy(wheelZoomOut, e.Pos)
	case e.DeltaY < 0:
		m.view.ZoomBy(wheelZoomIn, e.Pos)
	default:
		return false
	}
	return true
}

// setTool switches tools, cancelling any active gesture first.
func (m *Machine) setTool(t Tool) bool {
	if !t.Valid() {
		return false
	}
	if t == m.tool && m.state == Idle {
		return true
	}
	m.Cancel()
	m.tool = t
	m.changed()
	return true
}

// Cancel aborts the active gesture and returns to Idle. Drags are reverted,
// box selections and pending connections are discarded, and panning keeps
// the pan reached.
func (m *Machine) Cancel() {
	switch m.state {
	case Idle:
		return
	case Panning:
		m.view.PanEnd()
	case DraggingNodes:
		m.store.SetPositions(m.dragOrigin)
	}
	if m.logger != nil {
		m.logger.Debug("gesture cancelled", slog.String("state", m.state.String()))
	}
	m.resetGesture()
	m.enter(Idle)
}

func (m *Machine) resetGesture() {
	m.dragIDs = nil
	m.dragOrigin = nil
	m.dragMoved = false
	m.boxStart, m.boxEnd = geom.Point{}, geom.Point{}
	m.connectFrom = 0
	m.connectEnd = geom.Point{}
}

func (m *Machine) keyPress(e KeyPress) bool {
	if m.textFocus {
		return false
	}
	km := m.keymap

	switch {
	case key.Matches(e, km.Clear):
		m.Cancel()
		m.store.ClearSelection()
	case key.Matches(e, km.Save):
		if m.hooks.OnSave != nil {
			m.hooks.OnSave()
		}
	case key.Matches(e, km.ZoomIn):
		m.view.ZoomIn()
	case key.Matches(e, km.ZoomOut):
		m.view.ZoomOut()
	case key.Matches(e, km.ZoomReset):
		m.view.Reset()
	case key.Matches(e, km.Fit):
		m.view.FitToContent(m.store.NodeBounds())
	case key.Matches(e, km.ToolSelect):
		return m.setTool(ToolSelect)
	case key.Matches(e, km.ToolHand):
		return m.setTool(ToolHand)
	case key.Matches(e, km.ToolConnection):
		return m.setTool(ToolConnection)
	case key.Matches(e, km.ToggleSnap):
		m.SetSnap(!m.snap)
	default:
		return m.structuralCommand(e)
	}
	return true
}

// structuralCommand handles commands that rewrite the graph. They only run
// from Idle.
func (m *Machine) structuralCommand(e KeyPress) bool {
	km := m.keymap
	if m.state != Idle {
		return false
	}

	switch {
	case key.Matches(e, km.Delete):
		ids := m.store.Selected()
		if len(ids) == 0 {
			return false
		}
		m.store.DeleteNodes(ids)
		m.commit(Commit{Kind: CommitDelete, Nodes: ids})
	case key.Matches(e, km.Duplicate):
		dups := m.store.DuplicateNodes(m.store.Selected())
		if len(dups) == 0 {
			return false
		}
		ids := make([]graph.NodeID, len(dups))
		for i, n := range dups {
			ids[i] = n.ID
		}
		m.commit(Commit{Kind: CommitDuplicate, Nodes: ids})
	case key.Matches(e, km.SelectAll):
		m.store.SelectAll()
	case key.Matches(e, km.AlignLeft):
		return m.align(graph.AlignLeft)
	case key.Matches(e, km.AlignRight):
		return m.align(graph.AlignRight)
	case key.Matches(e, km.AlignTop):
		return m.align(graph.AlignTop)
	case key.Matches(e, km.AlignBottom):
		return m.align(graph.AlignBottom)
	case key.Matches(e, km.DistributeH):
		return m.distribute(graph.Horizontal)
	case key.Matches(e, km.DistributeV):
		return m.distribute(graph.Vertical)
	default:
		return false
	}
	return true
}

func (m *Machine) align(mode graph.Align) bool {
	ids := m.store.Selected()
	if len(ids) < 2 {
		return false
	}
	if m.store.AlignNodes(ids, mode) > 0 {
		m.commit(Commit{Kind: CommitAlign, Nodes: ids})
	}
	return true
}

func (m *Machine) distribute(axis graph.Axis) bool {
	ids := m.store.Selected()
	if len(ids) < 3 {
		return false
	}
	if m.store.DistributeNodes(ids, axis) > 0 {
		m.commit(Commit{Kind: CommitAlign, Nodes: ids})
	}
	return true
}

func (m *Machine) enter(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.changed()
}

func (m *Machine) changed() {
	if m.hooks.OnChange != nil {
		m.hooks.OnChange()
	}
}

func (m *Machine) commit(c Commit) {
	if m.logger != nil {
		m.logger.Debug("graph change committed",
			slog.String("kind", string(c.Kind)),
			slog.Int("nodes", len(c.Nodes)),
		)
	}
	if m.hooks.OnCommit != nil {
		m.hooks.OnCommit(c)
	}
}
