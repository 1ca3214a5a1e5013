// Package render draws the graph store, viewport and interaction overlay
// into a character-cell Frame.
//
// A Surface is dirty-flag driven. The host marks it dirty (or mutates the
// store, which bumps its revision) and calls Refresh from its display
// refresh callback; Refresh renders at most once per change and is inert
// otherwise.
//
// Layers, bottom to top: grid, connections, nodes in layer order,
// selection box, pending connection preview.
package render

import (
	"math"
	"strconv"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

// Defaults for cell mapping and grid spacing.
const (
	DefaultCellWidth  = 10.0
	DefaultCellHeight = 20.0
	DefaultGridSize   = 20.0
	DefaultMajorGrid  = 100.0
)

// Overlay supplies transient interaction state drawn above the graph.
type Overlay interface {
	Hovered() (graph.NodeID, bool)
	SelectionBox() (geom.Rect, bool)
	PendingConnection() (graph.NodeID, geom.Point, bool)
}

// Surface renders frames on demand.
type Surface struct {
	store   *graph.Store
	view    *viewport.Controller
	overlay Overlay

	cellW, cellH float64
	gridSize     float64
	majorGrid    float64
	grid         bool

	dirty    bool
	revision uint64
	frames   int
	last     Frame
}

// Option configures a Surface.
type Option func(*Surface)

// WithOverlay sets the interaction overlay.
func WithOverlay(o Overlay) Option {
	return func(s *Surface) { s.overlay = o }
}

// WithCellSize sets how many screen units one cell covers.
func WithCellSize(w, h float64) Option {
	return func(s *Surface) {
		if w > 0 && h > 0 {
			s.cellW, s.cellH = w, h
		}
	}
}

// WithGrid enables or disables the background grid.
func WithGrid(on bool) Option {
	return func(s *Surface) { s.grid = on }
}

// WithGridSize sets minor and major grid spacing in world units. major must
// be a multiple of minor.
func WithGridSize(minor, major float64) Option {
	return func(s *Surface) {
		if minor > 0 && major >= minor {
			s.gridSize, s.majorGrid = minor, major
		}
	}
}

// NewSurface creates a surface over store and view. It starts dirty.
func NewSurface(store *graph.Store, view *viewport.Controller, opts ...Option) *Surface {
	s := &Surface{
		store:     store,
		view:      view,
		cellW:     DefaultCellWidth,
		cellH:     DefaultCellHeight,
		gridSize:  DefaultGridSize,
		majorGrid: DefaultMajorGrid,
		grid:      true,
		dirty:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOverlay replaces the overlay and marks the surface dirty.
func (s *Surface) SetOverlay(o Overlay) {
	s.overlay = o
	s.dirty = true
}

// MarkDirty schedules a render on the next Refresh.
func (s *Surface) MarkDirty() { s.dirty = true }

// Dirty reports whether the next Refresh will render.
func (s *Surface) Dirty() bool {
	return s.dirty || s.store.Revision() != s.revision
}

// ToggleGrid flips grid visibility and returns the new state.
func (s *Surface) ToggleGrid() bool {
	s.grid = !s.grid
	s.dirty = true
	return s.grid
}

// Frames returns how many frames have been rendered.
func (s *Surface) Frames() int { return s.frames }

// Last returns the most recently rendered frame.
func (s *Surface) Last() Frame { return s.last }

// CellSize returns the screen units covered by one cell.
func (s *Surface) CellSize() (w, h float64) { return s.cellW, s.cellH }

// ScreenPoint returns the screen point at the centre of cell (c, r).
func (s *Surface) ScreenPoint(c, r int) geom.Point {
	return geom.Pt((float64(c)+0.5)*s.cellW, (float64(r)+0.5)*s.cellH)
}

// Refresh renders when dirty and reports whether it did.
func (s *Surface) Refresh() (Frame, bool) {
	if !s.Dirty() {
		return s.last, false
	}
	return s.Render(), true
}

// Render draws a frame unconditionally and clears the dirty flag.
func (s *Surface) Render() Frame {
	w, h := s.view.Size()
	f := newFrame(int(math.Ceil(w/s.cellW)), int(math.Ceil(h/s.cellH)))

	if s.grid {
		s.drawGrid(&f)
	}

	nodes := s.store.Nodes()
	index := make(map[graph.NodeID]graph.Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	for _, c := range s.store.Connections() {
		src, ok1 := index[c.Source]
		dst, ok2 := index[c.Target]
		if !ok1 || !ok2 {
			continue
		}
		// End one cell left of the target border so the arrowhead shows.
		end := s.cellOf(inputPort(dst))
		end.c--
		drawLine(&f, s.cellOf(outputPort(src)), end,
			c.Type == graph.Reference, KindConnection, ConnectionColor(c.Type))
	}

	var hovered graph.NodeID
	var hovering bool
	if s.overlay != nil {
		hovered, hovering = s.overlay.Hovered()
	}
	for _, n := range nodes {
		style := borderLight
		kind := KindNode
		switch {
		case s.store.IsSelected(n.ID):
			style, kind = borderDouble, KindNodeSelected
		case hovering && n.ID == hovered:
			style, kind = borderHeavy, KindNodeHovered
		}
		s.drawNode(&f, n, style, kind)
	}

	if s.overlay != nil {
		if box, ok := s.overlay.SelectionBox(); ok {
			s.drawBox(&f, box)
		}
		if from, end, ok := s.overlay.PendingConnection(); ok {
			if n, ok := index[from]; ok {
				drawLine(&f, s.cellOf(outputPort(n)), s.cellOf(end), true, KindPreview, "")
			}
		}
	}

	s.dirty = false
	s.revision = s.store.Revision()
	s.frames++
	s.last = f
	return f
}

type cell struct{ c, r int }

// cellOf maps a world point to its cell.
func (s *Surface) cellOf(world geom.Point) cell {
	p := s.view.WorldToScreen(world)
	return cell{toCell(math.Floor(p.X / s.cellW)), toCell(math.Floor(p.Y / s.cellH))}
}

// maxCell bounds cell coordinates so far-off geometry cannot overflow int
// arithmetic. It is far outside any frame.
const maxCell = 1 << 30

func toCell(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(-maxCell, math.Min(maxCell, v)))
}

func outputPort(n graph.Node) geom.Point { return geom.Pt(n.X+n.Width, n.Y+n.Height/2) }
func inputPort(n graph.Node) geom.Point  { return geom.Pt(n.X, n.Y+n.Height/2) }

func (s *Surface) drawGrid(f *Frame) {
	zoom := s.view.Zoom()
	step := s.gridSize
	// Skip minor lines when they would land in every cell.
	if step*zoom < s.cellW || step*zoom < s.cellH {
		step = s.majorGrid
		if step*zoom < s.cellW || step*zoom < s.cellH {
			return
		}
	}
	ratio := int64(math.Round(s.majorGrid / s.gridSize))
	vis := s.view.VisibleWorld()
	x0 := int64(math.Ceil(vis.X / step))
	y0 := int64(math.Ceil(vis.Y / step))
	x1 := int64(math.Floor((vis.X + vis.W) / step))
	y1 := int64(math.Floor((vis.Y + vis.H) / step))
	for yi := y0; yi <= y1; yi++ {
		for xi := x0; xi <= x1; xi++ {
			wx, wy := float64(xi)*step, float64(yi)*step
			at := s.cellOf(geom.Pt(wx, wy))
			major := step == s.majorGrid ||
				(int64(math.Round(wx/s.gridSize))%ratio == 0 && int64(math.Round(wy/s.gridSize))%ratio == 0)
			if major {
				f.set(at.c, at.r, '+', KindGridMajor, "")
			} else {
				f.set(at.c, at.r, '·', KindGrid, "")
			}
		}
	}
}

// drawLine draws a straight cell line from a to b with an arrowhead at b.
// Only the steps that can land inside f are visited.
func drawLine(f *Frame, a, b cell, dashed bool, kind Kind, color string) {
	dc, dr := b.c-a.c, b.r-a.r
	steps := max(abs(dc), abs(dr))
	if steps == 0 {
		f.set(b.c, b.r, arrowHead(1, 0), kind, color)
		return
	}
	at := func(i int) cell {
		return cell{
			a.c + int(math.Round(float64(dc)*float64(i)/float64(steps))),
			a.r + int(math.Round(float64(dr)*float64(i)/float64(steps))),
		}
	}
	lo, hi, ok := lineWindow(a, dc, dr, steps, f.Cols, f.Rows)
	if ok {
		for i := lo; i <= hi; i++ {
			cur, next := at(i), at(i+1)
			f.set(cur.c, cur.r, lineRune(next.c-cur.c, next.r-cur.r, dashed), kind, color)
		}
	}
	f.set(b.c, b.r, arrowHead(dc, dr), kind, color)
}

// lineWindow returns the step range [lo, hi] within [0, steps) whose cells
// may fall inside a cols x rows frame.
func lineWindow(a cell, dc, dr, steps, cols, rows int) (lo, hi int, ok bool) {
	tlo, thi := 0.0, float64(steps-1)
	axis := func(start, d, n int) bool {
		if d == 0 {
			return start >= 0 && start < n
		}
		// Cells round to the nearest column or row, so the frame spans
		// [-0.5, n-0.5) in unrounded coordinates.
		t0 := (-0.5 - float64(start)) * float64(steps) / float64(d)
		t1 := (float64(n) - 0.5 - float64(start)) * float64(steps) / float64(d)
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tlo = math.Max(tlo, math.Floor(t0)-1)
		thi = math.Min(thi, math.Ceil(t1)+1)
		return true
	}
	if !axis(a.c, dc, cols) || !axis(a.r, dr, rows) || tlo > thi {
		return 0, 0, false
	}
	return int(tlo), int(thi), true
}

func lineRune(dc, dr int, dashed bool) rune {
	switch {
	case dr == 0:
		if dashed {
			return '┄'
		}
		return '─'
	case dc == 0:
		if dashed {
			return '┆'
		}
		return '│'
	case (dc > 0) == (dr > 0):
		return '╲'
	default:
		return '╱'
	}
}

func arrowHead(dc, dr int) rune {
	if abs(dr) > abs(dc) {
		if dr > 0 {
			return 'v'
		}
		return '^'
	}
	if dc < 0 {
		return '<'
	}
	return '>'
}

type border struct {
	h, v, tl, tr, bl, br rune
}

var (
	borderLight  = border{'─', '│', '┌', '┐', '└', '┘'}
	borderDouble = border{'═', '║', '╔', '╗', '╚', '╝'}
	borderHeavy  = border{'━', '┃', '┏', '┓', '┗', '┛'}
	borderDashed = border{'┈', '┊', '╭', '╮', '╰', '╯'}
)

// span returns the inclusive cell range covered by world rect r.
func (s *Surface) span(r geom.Rect) (c0, r0, c1, r1 int) {
	sr := s.view.WorldRect(r)
	c0 = toCell(math.Floor(sr.X / s.cellW))
	r0 = toCell(math.Floor(sr.Y / s.cellH))
	c1 = toCell(math.Ceil((sr.X+sr.W)/s.cellW)) - 1
	r1 = toCell(math.Ceil((sr.Y+sr.H)/s.cellH)) - 1
	return c0, r0, max(c1, c0), max(r1, r0)
}

// visible reports whether the inclusive cell box overlaps f.
func visible(f *Frame, c0, r0, c1, r1 int) bool {
	return c1 >= 0 && r1 >= 0 && c0 < f.Cols && r0 < f.Rows
}

func (s *Surface) drawNode(f *Frame, n graph.Node, b border, kind Kind) {
	c0, r0, c1, r1 := s.span(n.Bounds())
	if !visible(f, c0, r0, c1, r1) {
		return
	}

	for r := max(r0, 0); r <= min(r1, f.Rows-1); r++ {
		for c := max(c0, 0); c <= min(c1, f.Cols-1); c++ {
			f.set(c, r, ' ', KindText, "")
		}
	}
	outline(f, c0, r0, c1, r1, b, kind, n.Color)

	inner := c1 - c0 - 1
	if inner <= 0 {
		return
	}
	lines := []struct {
		text  string
		kind  Kind
		color string
	}{
		{n.Label(), KindText, ""},
		{statusBadge(n), KindStatus, StatusColor(n.Status)},
		{n.Category, KindText, n.Color},
	}
	for i, l := range lines {
		row := r0 + 1 + i
		if row >= r1 || row >= f.Rows {
			break
		}
		f.text(c0+1, row, l.text, inner, l.kind, l.color)
	}
}

func statusBadge(n graph.Node) string {
	badge := "[" + string(n.Status) + "]"
	if n.Progress > 0 && n.Status != graph.StatusDone {
		badge += " " + strconv.Itoa(n.Progress) + "%"
	}
	return badge
}

func (s *Surface) drawBox(f *Frame, box geom.Rect) {
	c0, r0, c1, r1 := s.span(box)
	if !visible(f, c0, r0, c1, r1) {
		return
	}
	outline(f, c0, r0, c1, r1, borderDashed, KindSelectionBox, "")
}

func outline(f *Frame, c0, r0, c1, r1 int, b border, kind Kind, color string) {
	for c := max(c0+1, 0); c < min(c1, f.Cols); c++ {
		f.set(c, r0, b.h, kind, color)
		f.set(c, r1, b.h, kind, color)
	}
	for r := max(r0+1, 0); r < min(r1, f.Rows); r++ {
		f.set(c0, r, b.v, kind, color)
		f.set(c1, r, b.v, kind, color)
	}
	f.set(c0, r0, b.tl, kind, color)
	f.set(c1, r0, b.tr, kind, color)
	f.set(c0, r1, b.bl, kind, color)
	f.set(c1, r1, b.br, kind, color)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
