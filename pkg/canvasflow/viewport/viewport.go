// Package viewport implements the pan/zoom transform that maps world
// coordinates (where nodes live) to screen coordinates (where pointer events
// arrive and frames are drawn).
//
// The transform is
//
//	screen = world*zoom + pan
//	world  = (screen - pan) / zoom
//
// Zoom is always kept inside [MinZoom, MaxZoom]. Every mutating method
// invokes the OnChange callback so a render surface can mark itself dirty.
package viewport

import (
	"math"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
)

// Default bounds and steps.
const (
	DefaultMinZoom    = 0.25
	DefaultMaxZoom    = 4.0
	DefaultZoomStep   = 1.2
	DefaultFitPadding = 100.0
	DefaultWidth      = 1280.0
	DefaultHeight     = 720.0
)

// State is the serializable portion of a viewport.
type State struct {
	PanX float64 `json:"x" yaml:"x"`
	PanY float64 `json:"y" yaml:"y"`
	Zoom float64 `json:"zoom" yaml:"zoom"`
}

// Controller owns the viewport transform. It is not safe for concurrent use;
// it belongs to the single interactive mutator.
type Controller struct {
	pan  geom.Point
	zoom float64

	minZoom    float64
	maxZoom    float64
	zoomStep   float64
	fitPadding float64
	width      float64
	height     float64

	panning  bool
	panStart geom.Point

	onChange func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithZoomBounds sets the allowed zoom range. Invalid ranges are ignored.
func WithZoomBounds(minZoom, maxZoom float64) Option {
	return func(c *Controller) {
		if minZoom > 0 && maxZoom >= minZoom {
			c.minZoom = minZoom
			c.maxZoom = maxZoom
		}
	}
}

// WithSize sets the viewport size in screen units.
func WithSize(width, height float64) Option {
	return func(c *Controller) {
		if width > 0 && height > 0 {
			c.width = width
			c.height = height
		}
	}
}

// WithZoomStep sets the factor used by ZoomIn and ZoomOut.
func WithZoomStep(step float64) Option {
	return func(c *Controller) {
		if step > 1 {
			c.zoomStep = step
		}
	}
}

// WithFitPadding sets the world-space padding FitToContent adds around the
// content bounding box.
func WithFitPadding(padding float64) Option {
	return func(c *Controller) {
		if padding >= 0 {
			c.fitPadding = padding
		}
	}
}

// WithOnChange registers a callback invoked after every change.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// New creates a controller at pan (0,0), zoom 1.
func New(opts ...Option) *Controller {
	c := &Controller{
		zoom:       1,
		minZoom:    DefaultMinZoom,
		maxZoom:    DefaultMaxZoom,
		zoomStep:   DefaultZoomStep,
		fitPadding: DefaultFitPadding,
		width:      DefaultWidth,
		height:     DefaultHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.zoom = c.clamp(c.zoom)
	return c
}

// OnChange replaces the change callback.
func (c *Controller) OnChange(fn func(State)) {
	c.onChange = fn
}

// State returns the current pan and zoom.
func (c *Controller) State() State {
	return State{PanX: c.pan.X, PanY: c.pan.Y, Zoom: c.zoom}
}

// Restore replaces pan and zoom. Zoom is clamped into the allowed range and
// a zero zoom is treated as 1.
func (c *Controller) Restore(s State) {
	z := s.Zoom
	if z == 0 {
		z = 1
	}
	c.pan = geom.Pt(s.PanX, s.PanY)
	c.zoom = c.clamp(z)
	c.changed()
}

// Zoom returns the current zoom scalar.
func (c *Controller) Zoom() float64 { return c.zoom }

// Pan returns the current pan offset.
func (c *Controller) Pan() geom.Point { return c.pan }

// Size returns the viewport size in screen units.
func (c *Controller) Size() (width, height float64) { return c.width, c.height }

// Bounds returns the zoom range.
func (c *Controller) Bounds() (minZoom, maxZoom float64) { return c.minZoom, c.maxZoom }

// Center returns the screen-space center of the viewport.
func (c *Controller) Center() geom.Point {
	return geom.Pt(c.width/2, c.height/2)
}

// Resize updates the viewport size. Non-positive sizes are ignored.
func (c *Controller) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.changed()
}

// ScreenToWorld converts a screen point to world coordinates.
func (c *Controller) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Pt((p.X-c.pan.X)/c.zoom, (p.Y-c.pan.Y)/c.zoom)
}

// WorldToScreen converts a world point to screen coordinates.
func (c *Controller) WorldToScreen(p geom.Point) geom.Point {
	return geom.Pt(p.X*c.zoom+c.pan.X, p.Y*c.zoom+c.pan.Y)
}

// WorldRect converts a world rectangle to screen coordinates.
func (c *Controller) WorldRect(r geom.Rect) geom.Rect {
	tl := c.WorldToScreen(r.Min())
	return geom.Rect{X: tl.X, Y: tl.Y, W: r.W * c.zoom, H: r.H * c.zoom}
}

// VisibleWorld returns the world rectangle currently covered by the viewport.
func (c *Controller) VisibleWorld() geom.Rect {
	tl := c.ScreenToWorld(geom.Pt(0, 0))
	return geom.Rect{X: tl.X, Y: tl.Y, W: c.width / c.zoom, H: c.height / c.zoom}
}

// SetZoom clamps z into the allowed range and adjusts pan so the world point
// under anchor stays under anchor. It reports whether the zoom changed.
func (c *Controller) SetZoom(z float64, anchor geom.Point) bool {
	z = c.clamp(z)
	if z == c.zoom {
		return false
	}
	world := c.ScreenToWorld(anchor)
	c.zoom = z
	// pan = anchor - world*zoom keeps world under anchor.
	c.pan = geom.Pt(anchor.X-world.X*z, anchor.Y-world.Y*z)
	c.changed()
	return true
}

// ZoomBy multiplies the zoom by factor around anchor.
func (c *Controller) ZoomBy(factor float64, anchor geom.Point) bool {
	if factor <= 0 {
		return false
	}
	return c.SetZoom(c.zoom*factor, anchor)
}

// ZoomIn zooms in by the zoom step around the viewport center.
func (c *Controller) ZoomIn() bool {
	return c.ZoomBy(c.zoomStep, c.Center())
}

// ZoomOut zooms out by the zoom step around the viewport center.
func (c *Controller) ZoomOut() bool {
	return c.ZoomBy(1/c.zoomStep, c.Center())
}

// Reset restores pan (0,0) and zoom 1 (clamped).
func (c *Controller) Reset() {
	c.pan = geom.Point{}
	c.zoom = c.clamp(1)
	c.panning = false
	c.changed()
}

// PanBy shifts the pan offset by a screen-space delta.
func (c *Controller) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.pan = geom.Pt(c.pan.X+dx, c.pan.Y+dy)
	c.changed()
}

// PanStart begins a pan gesture at screen point p.
func (c *Controller) PanStart(p geom.Point) {
	c.panning = true
	c.panStart = p
}

// PanUpdate applies the delta since the last update. It is a no-op unless a
// pan gesture is active.
func (c *Controller) PanUpdate(p geom.Point) {
	if !c.panning {
		return
	}
	d := p.Sub(c.panStart)
	c.panStart = p
	c.PanBy(d.X, d.Y)
}

// PanEnd finishes the pan gesture. The reached pan offset is kept.
func (c *Controller) PanEnd() {
	c.panning = false
}

// Panning reports whether a pan gesture is active.
func (c *Controller) Panning() bool { return c.panning }

// FitToContent zooms and pans so the bounding box of rects, grown by the fit
// padding, is centered in the viewport. Zoom is min(W/boxW, H/boxH, 1),
// clamped into the allowed range. An empty input is a no-op.
func (c *Controller) FitToContent(rects []geom.Rect) bool {
	box, ok := geom.Bounds(rects...)
	if !ok {
		return false
	}
	box = box.Inset(c.fitPadding)
	if box.W <= 0 || box.H <= 0 {
		return false
	}

	z := math.Min(math.Min(c.width/box.W, c.height/box.H), 1)
	z = c.clamp(z)

	c.zoom = z
	c.pan = geom.Pt(
		(c.width-box.W*z)/2-box.X*z,
		(c.height-box.H*z)/2-box.Y*z,
	)
	c.changed()
	return true
}

func (c *Controller) clamp(z float64) float64 {
	if math.IsNaN(z) {
		return c.zoom
	}
	return math.Max(c.minZoom, math.Min(c.maxZoom, z))
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
