package interaction

import "github.com/charmbracelet/bubbles/key"

// Keymap binds discrete editor commands to keys.
type Keymap struct {
	Delete         key.Binding
	Duplicate      key.Binding
	SelectAll      key.Binding
	Clear          key.Binding
	Save           key.Binding
	ZoomIn         key.Binding
	ZoomOut        key.Binding
	ZoomReset      key.Binding
	Fit            key.Binding
	ToolSelect     key.Binding
	ToolHand       key.Binding
	ToolConnection key.Binding
	AlignLeft      key.Binding
	AlignRight     key.Binding
	AlignTop       key.Binding
	AlignBottom    key.Binding
	DistributeH    key.Binding
	DistributeV    key.Binding
	ToggleSnap     key.Binding
}

// DefaultKeymap returns the standard editor shortcuts.
func DefaultKeymap() Keymap {
	return Keymap{
		Delete: key.NewBinding(
			key.WithKeys("delete", "backspace"),
			key.WithHelp("del", "delete selection"),
		),
		Duplicate: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "duplicate"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select all"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear selection"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("ctrl+=", "ctrl++", "+"),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("ctrl+-", "-"),
			key.WithHelp("-", "zoom out"),
		),
		ZoomReset: key.NewBinding(
			key.WithKeys("ctrl+0", "0"),
			key.WithHelp("0", "reset view"),
		),
		Fit: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fit to content"),
		),
		ToolSelect: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "select tool"),
		),
		ToolHand: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hand tool"),
		),
		ToolConnection: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connection tool"),
		),
		// Terminals cannot report ctrl+shift, so alt works too.
		AlignLeft: key.NewBinding(
			key.WithKeys("ctrl+L", "ctrl+shift+l", "alt+l"),
			key.WithHelp("ctrl+shift+l", "align left"),
		),
		AlignRight: key.NewBinding(
			key.WithKeys("ctrl+R", "ctrl+shift+r", "alt+r"),
			key.WithHelp("ctrl+shift+r", "align right"),
		),
		AlignTop: key.NewBinding(
			key.WithKeys("ctrl+T", "ctrl+shift+t", "alt+t"),
			key.WithHelp("ctrl+shift+t", "align top"),
		),
		AlignBottom: key.NewBinding(
			key.WithKeys("ctrl+B", "ctrl+shift+b", "alt+b"),
			key.WithHelp("ctrl+shift+b", "align bottom"),
		),
		DistributeH: key.NewBinding(
			key.WithKeys("ctrl+H", "ctrl+shift+h", "alt+h"),
			key.WithHelp("ctrl+shift+h", "distribute horizontally"),
		),
		DistributeV: key.NewBinding(
			key.WithKeys("ctrl+V", "ctrl+shift+v", "alt+v"),
			key.WithHelp("ctrl+shift+v", "distribute vertically"),
		),
		ToggleSnap: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle snap to grid"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k Keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToolSelect, k.ToolHand, k.ToolConnection, k.Delete, k.Save}
}

// FullHelp implements help.KeyMap.
func (k Keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToolSelect, k.ToolHand, k.ToolConnection},
		{k.Delete, k.Duplicate, k.SelectAll, k.Clear},
		{k.ZoomIn, k.ZoomOut, k.ZoomReset, k.Fit},
		{k.AlignLeft, k.AlignRight, k.AlignTop, k.AlignBottom},
		{k.DistributeH, k.DistributeV, k.ToggleSnap},
		{k.Save},
	}
}
