package obj

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/skiffgames/skiff/protocol"
)

// Collector polls the host's input devices each tick and accumulates them
// into the pending inbound message. The message keeps growing across ticks
// whose send was skipped because the logic side hadn't drained yet; held
// keys collapse to one entry, clicks stack.
type Collector struct {
	cam     *Camera
	pending protocol.InputMessage
}

// NewCollector wires input capture to the camera used for click
// unprojection.
func NewCollector(cam *Camera) *Collector {
	return &Collector{cam: cam}
}

var keyBindings = []struct {
	key   protocol.Key
	codes []ebiten.Key
}{
	{protocol.KeyUp, []ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}},
	{protocol.KeyRight, []ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}},
	{protocol.KeyDown, []ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}},
	{protocol.KeyLeft, []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}},
	{protocol.KeyAction1, []ebiten.Key{ebiten.KeySpace}},
	{protocol.KeyAction2, []ebiten.Key{ebiten.KeyZ}},
	{protocol.KeyAction3, []ebiten.Key{ebiten.KeyX}},
	{protocol.KeyAction4, []ebiten.Key{ebiten.KeyEscape}},
}

// Update polls keys and clicks once. Call exactly once per tick.
func (c *Collector) Update() {
	for _, b := range keyBindings {
		for _, code := range b.codes {
			if ebiten.IsKeyPressed(code) {
				c.pending.AddKey(b.key)
				break
			}
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		wx, wy := c.cam.ScreenToWorld(mx, my)
		c.pending.AddClick(wx, wy)
	}
}

// Pending returns the accumulated message.
func (c *Collector) Pending() protocol.InputMessage {
	return c.pending
}

// Clear resets the accumulation after a successful send.
func (c *Collector) Clear() {
	c.pending = protocol.InputMessage{}
}
