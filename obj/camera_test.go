package obj

import (
	"math"
	"testing"

	"github.com/skiffgames/skiff/registry"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDefaultFramingFillsScreen(t *testing.T) {
	c := NewCamera(1260, 720)

	if got := c.PxPerUnit(); !almost(got, 45) {
		t.Fatalf("px per unit = %v, want 45", got)
	}

	// View center lands on screen center.
	x, y := c.WorldToScreen(13.5, 7.5)
	if !almost(x, 630) || !almost(y, 360) {
		t.Fatalf("center maps to (%v, %v), want (630, 360)", x, y)
	}

	// The field's bottom-left edge (unit sprites centered on 0..27 x 0..15)
	// lands on the screen's bottom-left corner; world y points up.
	x, y = c.WorldToScreen(-0.5, -0.5)
	if !almost(x, 0) || !almost(y, 720) {
		t.Fatalf("bottom-left maps to (%v, %v), want (0, 720)", x, y)
	}
	x, y = c.WorldToScreen(27.5, 15.5)
	if !almost(x, 1260) || !almost(y, 0) {
		t.Fatalf("top-right maps to (%v, %v), want (1260, 0)", x, y)
	}
}

func TestScreenToWorldRoundTrip(t *testing.T) {
	c := NewCamera(1260, 720)
	c.Apply(registry.Camera{X: 3, Y: -2, Size: 5, Angle: 30})

	cases := []struct{ wx, wy float64 }{
		{0, 0},
		{3, -2},
		{-7.25, 12.5},
	}
	for _, p := range cases {
		sx, sy := c.WorldToScreen(p.wx, p.wy)
		wx, wy := c.ScreenToWorld(int(math.Round(sx)), int(math.Round(sy)))
		// Screen coordinates are whole pixels, so allow one pixel of slack.
		tol := 1.5 / c.PxPerUnit()
		if math.Abs(wx-p.wx) > tol || math.Abs(wy-p.wy) > tol {
			t.Fatalf("round trip (%v, %v) -> (%v, %v)", p.wx, p.wy, wx, wy)
		}
	}
}

func TestApplyKeepsLastUsableSize(t *testing.T) {
	c := NewCamera(1260, 720)
	c.Apply(registry.Camera{X: 1, Y: 2, Size: 4})
	c.Apply(registry.Camera{X: 5, Y: 6, Size: 0})

	if got := c.PxPerUnit(); !almost(got, 90) {
		t.Fatalf("zero size must keep the previous scale, ppu = %v", got)
	}
	x, y := c.WorldToScreen(5, 6)
	if !almost(x, 630) || !almost(y, 360) {
		t.Fatalf("position update lost: center at (%v, %v)", x, y)
	}
}
