package render

import (
	"strings"
)

// Kind classifies a cell for styling.
type Kind uint8

// Cell kinds.
const (
	KindBlank Kind = iota
	KindGrid
	KindGridMajor
	KindConnection
	KindNode
	KindNodeSelected
	KindNodeHovered
	KindText
	KindStatus
	KindSelectionBox
	KindPreview
)

// Cell is one character of a frame. Color, when set, is a hex colour that
// overrides the theme foreground for the cell's kind.
type Cell struct {
	Rune  rune
	Kind  Kind
	Color string
}

// Frame is a rendered grid of cells, row-major.
type Frame struct {
	Cols  int
	Rows  int
	cells []Cell
}

func newFrame(cols, rows int) Frame {
	f := Frame{Cols: cols, Rows: rows, cells: make([]Cell, cols*rows)}
	for i := range f.cells {
		f.cells[i] = Cell{Rune: ' '}
	}
	return f
}

// At returns the cell at column c, row r. Out of range returns a blank cell.
func (f Frame) At(c, r int) Cell {
	if !f.in(c, r) {
		return Cell{Rune: ' '}
	}
	return f.cells[r*f.Cols+c]
}

// Row returns row r as plain text, including trailing blanks.
func (f Frame) Row(r int) string {
	if r < 0 || r >= f.Rows {
		return ""
	}
	var b strings.Builder
	for c := 0; c < f.Cols; c++ {
		b.WriteRune(f.cells[r*f.Cols+c].Rune)
	}
	return b.String()
}

// String returns the frame as plain text, one line per row with trailing
// blanks trimmed.
func (f Frame) String() string {
	lines := make([]string, f.Rows)
	for r := range lines {
		lines[r] = strings.TrimRight(f.Row(r), " ")
	}
	return strings.Join(lines, "\n")
}

// Count returns how many cells hold rune ch.
func (f Frame) Count(ch rune) int {
	n := 0
	for _, cell := range f.cells {
		if cell.Rune == ch {
			n++
		}
	}
	return n
}

func (f Frame) in(c, r int) bool {
	return c >= 0 && r >= 0 && c < f.Cols && r < f.Rows
}

func (f *Frame) set(c, r int, ch rune, kind Kind, color string) {
	if !f.in(c, r) {
		return
	}
	f.cells[r*f.Cols+c] = Cell{Rune: ch, Kind: kind, Color: color}
}

// text writes s starting at column c, clipped to maxWidth runes.
func (f *Frame) text(c, r int, s string, maxWidth int, kind Kind, color string) {
	i := 0
	for _, ch := range s {
		if i >= maxWidth {
			break
		}
		f.set(c+i, r, ch, kind, color)
		i++
	}
}
