package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/skiffgames/skiff/obj"
	"github.com/skiffgames/skiff/protocol"
	"github.com/skiffgames/skiff/reconcile"
	"github.com/skiffgames/skiff/session"
)

// producer is the logic side of the exchange as the tick loop sees it: either
// an external interpreter process or the embedded script engine.
type producer interface {
	Done() (bool, error)
	Close() error
}

// Game is the host loop. Each Update is one exchange tick: collect input and
// offer it to the inbound mailbox, drain the outbound mailbox into the
// reconciler, poll the producer's liveness. Draw renders whatever the
// registry last resolved.
type Game struct {
	sess    *session.Session
	rec     *reconcile.Reconciler
	input   *obj.Collector
	sprites *obj.SpritePool
	texts   *obj.TextPool
	logic   producer
	overlay *Overlay
	log     *zap.Logger

	width  int
	height int
	debug  bool

	logicDone bool
	logicErr  error
}

// NewGame assembles the loop from already-wired collaborators. logic may be
// nil when the producer is driven entirely out of process.
func NewGame(sess *session.Session, rec *reconcile.Reconciler, input *obj.Collector, sprites *obj.SpritePool, texts *obj.TextPool, logic producer, overlay *Overlay, debug bool, log *zap.Logger) *Game {
	cfg := sess.Config()
	return &Game{
		sess:    sess,
		rec:     rec,
		input:   input,
		sprites: sprites,
		texts:   texts,
		logic:   logic,
		overlay: overlay,
		log:     log,
		width:   cfg.Window.Width,
		height:  cfg.Window.Height,
		debug:   debug,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.overlay.Toggle()
	}

	g.input.Update()
	if err := g.sendInput(); err != nil {
		g.log.Warn("send input", zap.Error(err))
	}

	if err := g.receiveUpdates(); err != nil {
		return err
	}

	g.pollLogic()
	g.overlay.Update(g.logicStatus())
	return nil
}

// sendInput offers the accumulated input message to the inbound slot. An
// occupied slot means the logic side hasn't drained yet; the message keeps
// accumulating and rides the next tick. Nothing pending means nothing sent:
// the logic side treats an empty file as empty input.
func (g *Game) sendInput() error {
	pending := g.input.Pending()
	if pending.Empty() {
		return nil
	}
	payload, err := pending.Encode()
	if err != nil {
		return err
	}
	ok, err := g.sess.Inbound.TrySend(payload)
	if err != nil {
		return err
	}
	if ok {
		g.input.Clear()
	}
	return nil
}

// receiveUpdates drains at most one batch from the outbound slot. A payload
// that doesn't parse is logged and dropped; a resolved identity outside
// capacity ends the run.
func (g *Game) receiveUpdates() error {
	payload, err := g.sess.Outbound.TryReceive()
	if err != nil {
		g.log.Warn("receive updates", zap.Error(err))
		return nil
	}
	if payload == nil {
		return nil
	}

	batch, err := protocol.DecodeBatch(payload)
	if err != nil {
		g.log.Warn("dropping malformed update batch", zap.Error(err))
		return nil
	}

	if err := g.rec.ApplyBatch(batch); err != nil {
		if reconcile.Fatal(err) {
			return err
		}
		g.log.Error("apply update batch", zap.Error(err))
	}
	return nil
}

// pollLogic notes producer exit once. The window stays up so the last frame
// remains visible; Escape still reaches the logic side only while it runs, so
// the host quits on plain window close.
func (g *Game) pollLogic() {
	if g.logic == nil || g.logicDone {
		return
	}
	done, err := g.logic.Done()
	if !done {
		return
	}
	g.logicDone = true
	g.logicErr = err
	if err != nil {
		g.log.Error("logic producer failed", zap.Error(err))
	} else {
		g.log.Info("logic producer finished")
	}
}

func (g *Game) logicStatus() string {
	switch {
	case g.logic == nil:
		return "logic: none (external)"
	case !g.logicDone:
		return "logic: running"
	case g.logicErr != nil:
		return fmt.Sprintf("logic: failed (%v)", g.logicErr)
	default:
		return "logic: finished"
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.sprites.Draw(screen)
	g.texts.Draw(screen)

	if g.debug {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.1f  FPS: %.1f", ebiten.ActualTPS(), ebiten.ActualFPS()))
	}
	g.overlay.Draw(screen)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.width), float64(g.height)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
