package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skiffgames/skiff/assets"
	"github.com/skiffgames/skiff/interp"
	"github.com/skiffgames/skiff/obj"
	"github.com/skiffgames/skiff/reconcile"
	"github.com/skiffgames/skiff/registry"
	"github.com/skiffgames/skiff/script"
	"github.com/skiffgames/skiff/session"
)

func main() {
	configPath := flag.String("config", "", "session config file (yaml); defaults apply when omitted")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	ring := &LogRing{}
	logger, err := newLogger(*debug, ring)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(*configPath, flag.Args(), *debug, ring, logger); err != nil {
		logger.Fatal("session ended", zap.Error(err))
	}
}

func newLogger(debug bool, ring *LogRing) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build(zap.Hooks(ring.Hook))
}

func run(configPath string, logicArgs []string, debug bool, ring *LogRing, logger *zap.Logger) error {
	cfg := session.Default()
	if configPath != "" {
		var err error
		cfg, err = session.Load(configPath)
		if err != nil {
			return err
		}
	}
	// Positional arguments override the configured producer, so
	// "skiff python3 game.py" works without a config file.
	if len(logicArgs) > 0 {
		cfg.Logic.Command = logicArgs
		cfg.Logic.Script = ""
	}

	sess, err := session.New(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	lib := assets.NewLibrary(cfg.ResolvedDataDir(), logger)
	if err := lib.Watch(); err != nil {
		logger.Warn("asset hot reload disabled", zap.Error(err))
	}
	defer lib.Close()

	cam := obj.NewCamera(cfg.Window.Width, cfg.Window.Height)
	sprites := obj.NewSpritePool(lib, cam, logger)
	texts, err := obj.NewTextPool(cam, logger)
	if err != nil {
		return err
	}
	rack := obj.NewChannelRack(lib, logger)
	defer rack.Close()

	reg := registry.New(registry.Capacities{
		Sprites:  cfg.Capacity.Sprites,
		Texts:    cfg.Capacity.Texts,
		Channels: cfg.Capacity.Channels,
	})
	rec := reconcile.New(reg, sprites, sprites, texts, rack, cam, logger)

	var logic producer
	switch {
	case cfg.Logic.Script != "":
		e, err := script.Start(cfg.Logic.Script, sess.Inbound, sess.Outbound, cfg.Logic.TickRate, logger)
		if err != nil {
			return fmt.Errorf("start embedded script: %w", err)
		}
		logic = e
	case len(cfg.Logic.Command) > 0:
		r, err := interp.Start(cfg.Logic.Command, cfg.Exchange.Dir, logger)
		if err != nil {
			return fmt.Errorf("start logic process: %w", err)
		}
		logic = r
	default:
		logger.Info("no logic producer configured; waiting on the exchange files")
	}
	if logic != nil {
		defer logic.Close()
	}

	game := NewGame(sess, rec, obj.NewCollector(cam), sprites, texts, logic, NewOverlay(ring), debug, logger)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	return ebiten.RunGame(game)
}
