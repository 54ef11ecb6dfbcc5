// Command feed is a stand-in logic producer for exercising an exchange
// without an interpreter: a bordered field of squares, a player square driven
// by the movement keys, a title bar that follows the player and a beep on the
// first action key. It speaks the same mailbox protocol as any external game.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/skiffgames/skiff/mailbox"
	"github.com/skiffgames/skiff/protocol"
)

const step = 0.2

func main() {
	dir := flag.String("dir", "exchange", "exchange directory")
	fps := flag.Int("fps", 30, "logic ticks per second")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Mailbox roles swap on this side: the feed drains the input file and
	// sends sprite batches.
	f := &feed{
		in:  mailbox.New(filepath.Join(*dir, "input.txt")),
		out: mailbox.New(filepath.Join(*dir, "sprite.txt")),
		log: logger,
	}
	f.setup()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			logger.Info("feed stopped")
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

type feed struct {
	in  *mailbox.Mailbox
	out *mailbox.Mailbox
	log *zap.Logger

	playerX float64
	playerY float64

	pending protocol.UpdateBatch
}

// setup queues the initial scene: registrations, the border, the player and
// the title bar.
func (f *feed) setup() {
	f.pending.ImageChanges = append(f.pending.ImageChanges,
		protocol.ImageChange{ImageID: 0, Filename: "SquareRed.png"},
		protocol.ImageChange{ImageID: 1, Filename: "SquareBlue.png"},
	)
	f.pending.SoundChanges = append(f.pending.SoundChanges,
		protocol.SoundChange{SoundID: 0, Filename: "beep.wav"},
	)

	x0, y0 := 5.0, 0.0
	id := 1
	for x := 0; x < 16; x++ {
		for _, y := range []float64{0, 15} {
			u := protocol.NewSpriteUpdate()
			u.SpriteID = id
			u.ImageID = 1
			u.X = x0 + float64(x)
			u.Y = y0 + y
			u.Z = 0
			f.pending.SpriteChanges = append(f.pending.SpriteChanges, u)
			id++
		}
	}

	f.playerX = x0 + 7
	f.playerY = y0 + 7
	player := protocol.NewSpriteUpdate()
	player.SpriteID = 0
	player.ImageID = 0
	player.X = f.playerX
	player.Y = f.playerY
	player.Z = 1
	f.pending.SpriteChanges = append(f.pending.SpriteChanges, player)

	title := protocol.NewTextUpdate()
	title.TextID = 0
	title.Text = "test"
	title.X = f.playerX
	title.Y = 1
	title.Width = 4
	title.Height = 1
	title.BackgroundColor = protocol.Color{0, 128, 255}
	f.pending.TextChanges = append(f.pending.TextChanges, title)
}

func (f *feed) tick() {
	input := f.drainInput()

	moved := false
	for _, k := range input.KeyPresses {
		switch k {
		case protocol.KeyUp:
			f.playerY += step
			moved = true
		case protocol.KeyDown:
			f.playerY -= step
			moved = true
		case protocol.KeyRight:
			f.playerX += step
			moved = true
		case protocol.KeyLeft:
			f.playerX -= step
			moved = true
		case protocol.KeyAction1:
			beep := protocol.NewChannelUpdate()
			beep.ChannelID = 0
			beep.SoundID = 0
			beep.Playmode = 2
			f.pending.ChannelChanges = append(f.pending.ChannelChanges, beep)
		}
	}
	for _, c := range input.Clicks {
		f.playerX, f.playerY = c.X, c.Y
		moved = true
	}

	if moved {
		player := protocol.NewSpriteUpdate()
		player.SpriteID = 0
		player.X = f.playerX
		player.Y = f.playerY
		f.pending.SpriteChanges = append(f.pending.SpriteChanges, player)

		title := protocol.NewTextUpdate()
		title.TextID = 0
		title.X = f.playerX
		f.pending.TextChanges = append(f.pending.TextChanges, title)
	}

	f.flush()
}

func (f *feed) drainInput() protocol.InputMessage {
	payload, err := f.in.TryReceive()
	if err != nil {
		f.log.Warn("drain input", zap.Error(err))
		return protocol.InputMessage{}
	}
	if payload == nil {
		return protocol.InputMessage{}
	}
	msg, err := protocol.DecodeInput(payload)
	if err != nil {
		f.log.Warn("bad input message", zap.Error(err))
		return protocol.InputMessage{}
	}
	return msg
}

// flush sends the pending batch when the outbound slot is free; otherwise the
// changes ride the next tick.
func (f *feed) flush() {
	if f.pending.Empty() {
		return
	}
	payload, err := json.Marshal(f.pending)
	if err != nil {
		f.log.Error("encode batch", zap.Error(err))
		f.pending = protocol.UpdateBatch{}
		return
	}
	ok, err := f.out.TrySend(payload)
	if err != nil {
		f.log.Warn("send batch", zap.Error(err))
		return
	}
	if ok {
		f.pending = protocol.UpdateBatch{}
	}
}
