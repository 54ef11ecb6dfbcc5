package obj

import (
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/skiffgames/skiff/assets"
	"github.com/skiffgames/skiff/registry"
)

type spriteNode struct {
	rec registry.Sprite
}

// SpritePool draws every sprite the session has ever referenced, back to
// front by Z. Nodes are created once per identity and only ever updated; a
// sprite whose image can't be loaded stays textureless and keeps its slot.
type SpritePool struct {
	lib *assets.Library
	cam *Camera
	log *zap.Logger

	files   map[int]string
	nodes   map[int]*spriteNode
	order   []int
	missing map[string]bool
}

// NewSpritePool wires the pool to its image source and camera.
func NewSpritePool(lib *assets.Library, cam *Camera, log *zap.Logger) *SpritePool {
	return &SpritePool{
		lib:     lib,
		cam:     cam,
		log:     log,
		files:   map[int]string{},
		nodes:   map[int]*spriteNode{},
		missing: map[string]bool{},
	}
}

// RegisterImage points an image identity at a data-dir file. Re-registering
// an id swaps the file for every sprite using it.
func (p *SpritePool) RegisterImage(id int, filename string) {
	p.files[id] = filename
	delete(p.missing, filename)
}

// Create allocates the node for a first-referenced identity.
func (p *SpritePool) Create(id int) {
	p.nodes[id] = &spriteNode{}
	p.order = append(p.order, id)
}

// Apply adopts a resolved sprite record.
func (p *SpritePool) Apply(id int, rec registry.Sprite) {
	if n, ok := p.nodes[id]; ok {
		n.rec = rec
	}
}

// Draw renders the pool onto screen.
func (p *SpritePool) Draw(screen *ebiten.Image) {
	sort.SliceStable(p.order, func(i, j int) bool {
		a, b := p.nodes[p.order[i]].rec.Z, p.nodes[p.order[j]].rec.Z
		if a != b {
			return a < b
		}
		return p.order[i] < p.order[j]
	})

	ppu := p.cam.PxPerUnit()
	for _, id := range p.order {
		rec := p.nodes[id].rec
		if rec.Size <= 0 || rec.Alpha <= 0 {
			continue
		}
		img := p.image(rec.ImageID)
		if img == nil {
			continue
		}

		iw := img.Bounds().Dx()
		ih := img.Bounds().Dy()
		if iw == 0 || ih == 0 {
			continue
		}

		// Sprite width is Size world units; the view flip is baked in here
		// by composing in screen space, so the texture stays upright.
		k := rec.Size * ppu / float64(iw)
		sx, sy := p.cam.WorldToScreen(rec.X, rec.Y)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-float64(iw)/2, -float64(ih)/2)
		op.GeoM.Scale(k, k)
		op.GeoM.Rotate(-(rec.Angle - p.cam.Angle()) * math.Pi / 180)
		op.GeoM.Translate(sx, sy)
		op.ColorScale.ScaleAlpha(float32(rec.Alpha))
		screen.DrawImage(img, op)
	}
}

func (p *SpritePool) image(imageID int) *ebiten.Image {
	filename, ok := p.files[imageID]
	if !ok {
		return nil
	}
	img, err := p.lib.Image(filename)
	if err != nil {
		if !p.missing[filename] {
			p.missing[filename] = true
			p.log.Error("sprite image unavailable",
				zap.Int("image_id", imageID),
				zap.String("filename", filename),
				zap.Error(err))
		}
		return nil
	}
	return img
}
