package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/interaction"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/render"
)

// headerRows is the number of terminal rows above the canvas.
const headerRows = 1

// footerRows is the number of terminal rows below the canvas.
const footerRows = 2

func modifiers(shift, ctrl, alt bool) interaction.Modifiers {
	var m interaction.Modifiers
	if shift {
		m |= interaction.ModShift
	}
	if ctrl {
		m |= interaction.ModCtrl
	}
	if alt {
		m |= interaction.ModAlt
	}
	return m
}

func button(b tea.MouseButton) (interaction.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return interaction.ButtonLeft, true
	case tea.MouseButtonMiddle:
		return interaction.ButtonMiddle, true
	case tea.MouseButtonRight:
		return interaction.ButtonRight, true
	}
	return 0, false
}

// mouseEvent translates a terminal mouse message into an editor event.
// Messages outside the canvas rows are dropped.
func mouseEvent(msg tea.MouseMsg, surface *render.Surface, canvasRows int) (interaction.Event, bool) {
	row := msg.Y - headerRows
	if row < 0 || row >= canvasRows {
		return nil, false
	}
	pos := surface.ScreenPoint(msg.X, row)
	mods := modifiers(msg.Shift, msg.Ctrl, msg.Alt)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return interaction.Wheel{Pos: pos, DeltaY: -1}, true
	case tea.MouseButtonWheelDown:
		return interaction.Wheel{Pos: pos, DeltaY: 1}, true
	}

	switch msg.Action {
	case tea.MouseActionPress:
		b, ok := button(msg.Button)
		if !ok {
			return nil, false
		}
		return interaction.PointerDown{Pos: pos, Button: b, Mods: mods}, true
	case tea.MouseActionRelease:
		// Terminals often report releases without a button.
		b, ok := button(msg.Button)
		if !ok {
			b = interaction.ButtonLeft
		}
		return interaction.PointerUp{Pos: pos, Button: b, Mods: mods}, true
	case tea.MouseActionMotion:
		return interaction.PointerMove{Pos: pos, Mods: mods}, true
	}
	return nil, false
}

// keyEvent translates a terminal key message. bubbletea already folds
// modifiers into the key name ("ctrl+s").
func keyEvent(msg tea.KeyMsg) interaction.KeyPress {
	return interaction.KeyPress{Key: msg.String()}
}

// resizeEvent converts a terminal size into a canvas size in screen units.
func resizeEvent(msg tea.WindowSizeMsg, surface *render.Surface) (interaction.Resize, int) {
	rows := max(msg.Height-headerRows-footerRows, 1)
	cw, ch := surface.CellSize()
	return interaction.Resize{W: float64(msg.Width) * cw, H: float64(rows) * ch}, rows
}
