package main

import (
	"image/color"
	"strings"
	"sync"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/font/basicfont"
)

const overlayLines = 12

// LogRing keeps the most recent log lines for the in-game overlay. It is fed
// from a zap hook, so it must tolerate writes from any goroutine.
type LogRing struct {
	mu    sync.Mutex
	lines []string
}

// Hook is the zap hook that feeds the ring.
func (r *LogRing) Hook(e zapcore.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, strings.ToUpper(e.Level.String())+"  "+e.Message)
	if len(r.lines) > overlayLines {
		r.lines = r.lines[len(r.lines)-overlayLines:]
	}
	return nil
}

// Tail returns the retained lines, oldest first.
func (r *LogRing) Tail() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Overlay is the F1-toggled session panel: producer status on top, the log
// tail underneath. It draws over the game without pausing it.
type Overlay struct {
	ui      *ebitenui.UI
	ring    *LogRing
	status  *widget.Text
	tail    *widget.Text
	visible bool
}

// NewOverlay builds the panel. It uses the built-in basic font so it works
// before any session asset has loaded.
func NewOverlay(ring *LogRing) *Overlay {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{A: 200})
	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)

	status := widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0x9a, G: 0xe6, B: 0x9a, A: 0xff}),
	)
	tail := widget.NewText(
		widget.TextOpts.Text("", &face, color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}),
	)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 10, Bottom: 10, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionStart,
				VerticalPosition:   widget.AnchorLayoutPositionStart,
			}),
		),
	)
	panel.AddChild(status)
	panel.AddChild(tail)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &Overlay{
		ui:     &ebitenui.UI{Container: root},
		ring:   ring,
		status: status,
		tail:   tail,
	}
}

// Toggle flips visibility.
func (o *Overlay) Toggle() {
	o.visible = !o.visible
}

// Update refreshes the panel contents. status is the one-line producer state.
func (o *Overlay) Update(status string) {
	if !o.visible {
		return
	}
	o.status.Label = status
	o.tail.Label = strings.Join(o.ring.Tail(), "\n")
	o.ui.Update()
}

// Draw renders the panel if visible.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.visible {
		o.ui.Draw(screen)
	}
}
