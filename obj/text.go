package obj

import (
	"bytes"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/skiffgames/skiff/registry"
)

type textNode struct {
	rec    registry.Text
	active bool
}

// TextPool draws the session's text blocks: a filled, bordered box anchored
// at the block's bottom-left world position, with its content clipped to the
// box. Deactivated blocks keep their node and state but skip drawing.
type TextPool struct {
	cam   *Camera
	log   *zap.Logger
	font  *ebtext.GoTextFaceSource
	nodes map[int]*textNode
	order []int
}

// NewTextPool builds the pool with the bundled fallback face.
func NewTextPool(cam *Camera, log *zap.Logger) (*TextPool, error) {
	src, err := ebtext.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load text face: %w", err)
	}
	return &TextPool{
		cam:   cam,
		log:   log,
		font:  src,
		nodes: map[int]*textNode{},
	}, nil
}

// Create allocates the node for a first-referenced identity.
func (p *TextPool) Create(id int) {
	p.nodes[id] = &textNode{}
	p.order = append(p.order, id)
}

// Apply adopts a resolved text record and (re)activates the block.
func (p *TextPool) Apply(id int, rec registry.Text) {
	if n, ok := p.nodes[id]; ok {
		n.rec = rec
		n.active = true
	}
}

// Deactivate hides the block without forgetting it.
func (p *TextPool) Deactivate(id int) {
	if n, ok := p.nodes[id]; ok {
		n.active = false
	}
}

// Draw renders active blocks over the sprite layer, in identity order.
func (p *TextPool) Draw(screen *ebiten.Image) {
	ppu := p.cam.PxPerUnit()
	for _, id := range p.order {
		n := p.nodes[id]
		if !n.active {
			continue
		}
		rec := n.rec

		// Boxes stay screen-aligned; only position follows the camera.
		x, y := p.cam.WorldToScreen(rec.X, rec.Y+rec.Height)
		w := rec.Width * ppu
		h := rec.Height * ppu
		if w <= 0 || h <= 0 {
			continue
		}

		vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), rec.BackgroundColor.NRGBA(), false)
		vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, rec.BorderColor.NRGBA(), false)

		if rec.Text == "" || rec.FontSize <= 0 {
			continue
		}

		clipRect := image.Rect(int(x), int(y), int(x+w), int(y+h))
		clip, ok := screen.SubImage(clipRect).(*ebiten.Image)
		if !ok {
			continue
		}

		face := &ebtext.GoTextFace{Source: p.font, Size: rec.FontSize}
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(x+4, y+2)
		op.ColorScale.ScaleWithColor(rec.FontColor.NRGBA())
		op.LineSpacing = rec.FontSize * 1.25
		ebtext.Draw(clip, rec.Text, face, op)
	}
}
