package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectFromCorners(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Rect
	}{
		{"top-left to bottom-right", Pt(0, 0), Pt(10, 20), Rect{0, 0, 10, 20}},
		{"bottom-right to top-left", Pt(10, 20), Pt(0, 0), Rect{0, 0, 10, 20}},
		{"mixed", Pt(10, 0), Pt(0, 20), Rect{0, 0, 10, 20}},
		{"degenerate", Pt(5, 5), Pt(5, 5), Rect{5, 5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RectFromCorners(tt.a, tt.b))
		})
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}

	assert.True(t, r.Contains(Pt(10, 10)), "top-left edge is inclusive")
	assert.True(t, r.Contains(Pt(110, 60)), "bottom-right edge is inclusive")
	assert.True(t, r.Contains(Pt(50, 30)))
	assert.False(t, r.Contains(Pt(9.99, 30)))
	assert.False(t, r.Contains(Pt(50, 60.01)))
}

func TestRect_Intersects(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}

	tests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"overlapping", Rect{50, 50, 100, 100}, true},
		{"contained", Rect{10, 10, 10, 10}, true},
		{"containing", Rect{-10, -10, 200, 200}, true},
		{"touching edge", Rect{100, 0, 10, 10}, false},
		{"disjoint", Rect{200, 200, 10, 10}, false},
		{"zero area inside", Rect{50, 50, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Intersects(tt.o))
		})
	}
}

func TestRect_Inset(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}

	assert.Equal(t, Rect{-5, -5, 20, 20}, r.Inset(5))
	assert.Equal(t, Rect{2, 2, 6, 6}, r.Inset(-2))

	collapsed := r.Inset(-20)
	assert.Equal(t, 0.0, collapsed.W)
	assert.Equal(t, 0.0, collapsed.H)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds()
	assert.False(t, ok)

	b, ok := Bounds(Rect{0, 0, 10, 10}, Rect{50, -20, 10, 10})
	assert.True(t, ok)
	assert.Equal(t, Rect{0, -20, 60, 30}, b)
}

func TestPoint_Arithmetic(t *testing.T) {
	p := Pt(3, 4)
	assert.Equal(t, Pt(4, 6), p.Add(Pt(1, 2)))
	assert.Equal(t, Pt(2, 2), p.Sub(Pt(1, 2)))
	assert.Equal(t, Pt(6, 8), p.Scale(2))
	assert.True(t, p.Near(Pt(3.0000001, 4), 1e-6))
}
