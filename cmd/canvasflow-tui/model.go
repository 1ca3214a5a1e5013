package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	paletteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// appKeys are the shortcuts handled by the terminal host rather than the
// editor state machine.
type appKeys struct {
	Quit   key.Binding
	Run    key.Binding
	Add    key.Binding
	Next   key.Binding
	Load   key.Binding
	Help   key.Binding
	editor help.KeyMap
}

func newAppKeys(editor help.KeyMap) appKeys {
	k := appKeys{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Run:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "run graph")),
		Add:  key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "add node")),
		Next: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next template")),
		Load: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "load")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
	k.editor = editor
	return k
}

// ShortHelp implements help.KeyMap.
func (k appKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Next, k.Run, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k appKeys) FullHelp() [][]key.Binding {
	return append([][]key.Binding{{k.Add, k.Next, k.Run, k.Load, k.Help, k.Quit}}, k.editor.FullHelp()...)
}

type executionMsg canvasflow.Execution

type noticeMsg canvasflow.Notice

type model struct {
	session   *canvasflow.Session
	keys      appKeys
	help      help.Model
	spinner   spinner.Model
	templates []*palette.Template
	selected  int

	canvas  string
	rows    int
	width   int
	status  string
	running bool
	last    *scheduler.Result
}

func newModel(s *canvasflow.Session) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	_, h := s.Viewport().Size()
	_, ch := s.Surface().CellSize()
	return model{
		session:   s,
		keys:      newAppKeys(s.Machine().Keymap()),
		help:      help.New(),
		spinner:   sp,
		templates: s.Catalog().Templates(),
		rows:      max(int(h/ch), 1),
		status:    "ready",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitNotice(m.session))
}

func waitNotice(s *canvasflow.Session) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-s.Notices())
	}
}

func waitExecution(ch <-chan canvasflow.Execution) tea.Cmd {
	return func() tea.Msg {
		return executionMsg(<-ch)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Next):
			if len(m.templates) > 0 {
				m.selected = (m.selected + 1) % len(m.templates)
			}
		case key.Matches(msg, m.keys.Add):
			m.addNode()
		case key.Matches(msg, m.keys.Load):
			_ = m.session.Load(context.Background())
		case key.Matches(msg, m.keys.Run):
			if !m.running {
				m.running = true
				m.status = "running"
				cmds = append(cmds, waitExecution(m.session.ExecuteAsync(context.Background())))
			}
		default:
			m.session.Push(keyEvent(msg))
		}

	case tea.MouseMsg:
		if evt, ok := mouseEvent(msg, m.session.Surface(), m.rows); ok {
			m.session.Push(evt)
		}

	case tea.WindowSizeMsg:
		evt, rows := resizeEvent(msg, m.session.Surface())
		m.rows = rows
		m.width = msg.Width
		m.help.Width = msg.Width
		m.session.Push(evt)

	case executionMsg:
		m.running = false
		if msg.Err != nil {
			m.status = errorStyle.Render(msg.Err.Error())
			break
		}
		m.last = msg.Result
		m.session.ApplyResult(msg.Result)
		m.status = resultLine(msg.Result)

	case noticeMsg:
		m.status = noticeLine(canvasflow.Notice(msg))
		cmds = append(cmds, waitNotice(m.session))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if frame, ok := m.session.Tick(); ok {
		m.canvas = frame.Styled()
	}
	return m, tea.Batch(cmds...)
}

// addNode drops the selected template at the pointer, or the canvas centre
// before the pointer has moved.
func (m *model) addNode() {
	if len(m.templates) == 0 {
		return
	}
	pos := m.session.Machine().Pointer()
	if pos.X == 0 && pos.Y == 0 {
		w, h := m.session.Viewport().Size()
		pos.X, pos.Y = w/2, h/2
	}
	if _, err := m.session.AddNode(m.templates[m.selected].ID, pos); err != nil {
		m.status = errorStyle.Render(err.Error())
	}
}

func resultLine(r *scheduler.Result) string {
	line := fmt.Sprintf("%s: %d/%d completed in %s", r.Status, r.CompletedNodes, r.TotalNodes, r.Duration.Round(time.Millisecond))
	switch r.Status {
	case scheduler.StatusCompleted:
		return okStyle.Render(line)
	case scheduler.StatusPartial:
		return warnStyle.Render(line)
	default:
		return errorStyle.Render(line)
	}
}

func noticeLine(n canvasflow.Notice) string {
	if n.Err != nil {
		return warnStyle.Render(n.Message)
	}
	return subtleStyle.Render(n.Message)
}

func (m model) View() string {
	var b strings.Builder

	header := titleStyle.Render("canvasflow") + " " + subtleStyle.Render(m.session.GraphID())
	header += "  tool: " + string(m.session.Machine().Tool())
	if len(m.templates) > 0 {
		header += "  template: " + paletteStyle.Render(m.templates[m.selected].DisplayLabel())
	}
	header += fmt.Sprintf("  zoom: %.0f%%", m.session.Viewport().Zoom()*100)
	b.WriteString(header)
	b.WriteString("\n")

	b.WriteString(m.canvas)
	b.WriteString("\n")

	status := m.status
	if m.running {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
