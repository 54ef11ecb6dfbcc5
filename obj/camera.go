// Package obj holds the engine-side collaborators the reconciler hands
// resolved records to: the sprite pool, text boxes, sound channels, camera
// and input capture. Everything here is thin ebiten plumbing; none of it
// constructs or mutates resolved state.
package obj

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/skiffgames/skiff/registry"
)

// Camera maps world units onto the screen. The resolved record's X/Y are the
// view center, Size is half the vertical extent in world units, Angle is a
// counterclockwise world rotation in degrees. World y points up.
type Camera struct {
	rec     registry.Camera
	screenW int
	screenH int
}

// NewCamera starts at the registry's default framing.
func NewCamera(screenW, screenH int) *Camera {
	return &Camera{rec: registry.DefaultCamera(), screenW: screenW, screenH: screenH}
}

// Apply adopts a resolved camera record.
func (c *Camera) Apply(rec registry.Camera) {
	if rec.Size <= 0 {
		// A zero-height view can't render; keep the last usable size.
		rec.Size = c.rec.Size
	}
	c.rec = rec
}

// Angle returns the camera rotation in degrees.
func (c *Camera) Angle() float64 { return c.rec.Angle }

// PxPerUnit returns the current scale in pixels per world unit.
func (c *Camera) PxPerUnit() float64 {
	return float64(c.screenH) / (2 * c.rec.Size)
}

// View returns the world-to-screen transform.
func (c *Camera) View() ebiten.GeoM {
	s := c.PxPerUnit()
	var g ebiten.GeoM
	g.Translate(-c.rec.X, -c.rec.Y)
	g.Rotate(-c.rec.Angle * math.Pi / 180)
	g.Scale(s, -s)
	g.Translate(float64(c.screenW)/2, float64(c.screenH)/2)
	return g
}

// WorldToScreen projects a world position to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	v := c.View()
	return v.Apply(wx, wy)
}

// ScreenToWorld unprojects a screen pixel to world coordinates, used to
// report clicks in the logic process's coordinate space.
func (c *Camera) ScreenToWorld(sx, sy int) (float64, float64) {
	v := c.View()
	v.Invert()
	return v.Apply(float64(sx), float64(sy))
}
