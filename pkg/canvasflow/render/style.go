package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
)

// Status badge colours.
var statusColors = map[graph.Status]string{
	graph.StatusTodo:       "#ef4444",
	graph.StatusInProgress: "#f59e0b",
	graph.StatusDone:       "#10b981",
}

// Connection colours by type.
var connectionColors = map[graph.ConnectionType]string{
	graph.Sequential: "#6366f1",
	graph.Dependency: "#10b981",
	graph.Reference:  "#9ca3af",
	graph.Dataflow:   "#f59e0b",
}

// StatusColor returns the badge colour for a node status.
func StatusColor(s graph.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[graph.StatusTodo]
}

// ConnectionColor returns the line colour for a connection type.
func ConnectionColor(t graph.ConnectionType) string {
	if c, ok := connectionColors[t]; ok {
		return c
	}
	return connectionColors[graph.Sequential]
}

// Theme maps cell kinds to lipgloss styles.
type Theme map[Kind]lipgloss.Style

// DefaultTheme returns the editor's colour theme.
func DefaultTheme() Theme {
	return Theme{
		KindGrid:         lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
		KindGridMajor:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4b5563")),
		KindConnection:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6366f1")),
		KindNode:         lipgloss.NewStyle().Foreground(lipgloss.Color("#d1d5db")),
		KindNodeSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")).Bold(true),
		KindNodeHovered:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f3f4f6")).Bold(true),
		KindText:         lipgloss.NewStyle().Foreground(lipgloss.Color("#f9fafb")),
		KindStatus:       lipgloss.NewStyle().Bold(true),
		KindSelectionBox: lipgloss.NewStyle().Foreground(lipgloss.Color("#0d99ff")),
		KindPreview:      lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
	}
}

func (t Theme) style(c Cell) lipgloss.Style {
	st, ok := t[c.Kind]
	if !ok {
		st = lipgloss.NewStyle()
	}
	// Selection and hover colours win over the node's own colour.
	if c.Color != "" && c.Kind != KindNodeSelected && c.Kind != KindNodeHovered {
		st = st.Foreground(lipgloss.Color(c.Color))
	}
	return st
}

// Styled renders the frame with the default theme.
func (f Frame) Styled() string {
	return f.StyledWith(DefaultTheme())
}

// StyledWith renders the frame through lipgloss, one style run per span of
// cells sharing kind and colour.
func (f Frame) StyledWith(theme Theme) string {
	lines := make([]string, f.Rows)
	for r := 0; r < f.Rows; r++ {
		var b strings.Builder
		var run []rune
		var runCell Cell
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runCell.Kind == KindBlank {
				b.WriteString(string(run))
			} else {
				b.WriteString(theme.style(runCell).Render(string(run)))
			}
			run = run[:0]
		}
		for c := 0; c < f.Cols; c++ {
			cell := f.cells[r*f.Cols+c]
			if len(run) > 0 && (cell.Kind != runCell.Kind || cell.Color != runCell.Color) {
				flush()
			}
			if len(run) == 0 {
				runCell = cell
			}
			run = append(run, cell.Rune)
		}
		flush()
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}
