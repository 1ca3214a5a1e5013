package interaction

import (
	"strings"
	"sync"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
)

// Button identifies a pointer button.
type Button int

// Pointer buttons, numbered as browsers and terminals report them.
const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

// Modifier keys.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether every modifier in m2 is held.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

// multiSelect reports whether the additive-selection modifier is held.
func (m Modifiers) multiSelect() bool { return m&(ModCtrl|ModMeta) != 0 }

// pan reports whether the pan modifier is held.
func (m Modifiers) pan() bool { return m&ModShift != 0 }

// Event is an input event queued for the state machine. Positions are in
// screen coordinates.
type Event interface {
	eventName() string
}

// PointerDown is a button press.
type PointerDown struct {
	Pos    geom.Point
	Button Button
	Mods   Modifiers
}

// PointerMove is pointer motion, with or without a button held.
type PointerMove struct {
	Pos  geom.Point
	Mods Modifiers
}

// PointerUp is a button release.
type PointerUp struct {
	Pos    geom.Point
	Button Button
	Mods   Modifiers
}

// Wheel is a scroll. Positive DeltaY scrolls down and zooms out.
type Wheel struct {
	Pos    geom.Point
	DeltaY float64
}

// KeyPress is a key stroke. Key uses the names of the bubbles/bubbletea key
// vocabulary ("a", "delete", "backspace", "esc", "=", ...). Modifiers may be
// given either inside Key ("ctrl+a") or in Mods.
type KeyPress struct {
	Key  string
	Mods Modifiers
}

// String returns the canonical binding form, e.g. "ctrl+d". Meta is folded
// into ctrl so one binding serves both platforms, and shift on a single
// character upper-cases it ("ctrl+L").
func (k KeyPress) String() string {
	if k.Mods == 0 {
		return k.Key
	}
	var b strings.Builder
	if k.Mods&(ModCtrl|ModMeta) != 0 {
		b.WriteString("ctrl+")
	}
	if k.Mods&ModAlt != 0 {
		b.WriteString("alt+")
	}
	name := k.Key
	if k.Mods&ModShift != 0 {
		if len(name) > 1 {
			b.WriteString("shift+")
		} else {
			name = strings.ToUpper(name)
		}
	}
	b.WriteString(name)
	return b.String()
}

// SwitchTool switches the active tool.
type SwitchTool struct {
	Tool Tool
}

// Focus reports whether keyboard focus is inside a text field.
type Focus struct {
	TextField bool
}

// Resize reports a new viewport size in screen units.
type Resize struct {
	W, H float64
}

func (PointerDown) eventName() string { return "pointer_down" }
func (PointerMove) eventName() string { return "pointer_move" }
func (PointerUp) eventName() string   { return "pointer_up" }
func (Wheel) eventName() string       { return "wheel" }
func (KeyPress) eventName() string    { return "key" }
func (SwitchTool) eventName() string  { return "tool" }
func (Focus) eventName() string       { return "focus" }
func (Resize) eventName() string      { return "resize" }

// Queue buffers events between the host's input callbacks and the state
// machine tick. Push may be called from any goroutine.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends events in order.
func (q *Queue) Push(events ...Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, events...)
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drain removes and returns all pending events.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}
