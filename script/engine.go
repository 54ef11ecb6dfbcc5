// Package script runs an embedded tengo game as the logic producer, for
// games that don't need an external interpreter. The script talks the same
// exchange protocol as an external process, through the same mailbox pair:
// it drains the inbound file, records changes through engine builtins, and
// sends them as one batch per tick, so the engine side can't tell the
// difference.
//
// A game script must define:
//
//	setup := func(engine, state) { ... }          // runs once
//	update := func(engine, state, input) { ... }  // runs every tick
//
// where engine exposes image/sprite/text/sound/channel/camera/log builtins
// and input is {key_presses: [...], clicks: [{x, y}, ...]}. Each tick
// re-executes the compiled program, so top-level variables reset; anything
// that must survive between ticks goes in the shared state map.
package script

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"github.com/skiffgames/skiff/mailbox"
	"github.com/skiffgames/skiff/protocol"
)

const dispatchScript = `
if __phase == "setup" {
	setup(__engine, __state)
} else {
	update(__engine, __state, __input)
}
`

// Engine drives one compiled game script on its own goroutine at a fixed
// tick rate.
type Engine struct {
	compiled *tengo.Compiled
	in       *mailbox.Mailbox
	out      *mailbox.Mailbox
	tick     time.Duration
	log      *zap.Logger

	// state survives across runs; every Run re-executes the whole program
	// and resets the script's top-level variables.
	state *tengo.Map

	// pending accumulates changes across ticks whose send found the
	// outbound slot still occupied.
	pending protocol.UpdateBatch

	done atomic.Bool
	exit atomic.Pointer[error]
	stop chan struct{}
}

// Start compiles the script at path and begins ticking. in and out are the
// session mailboxes as seen from the logic side: in is drained, out is sent.
func Start(path string, in, out *mailbox.Mailbox, tickRate int, log *zap.Logger) (*Engine, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game script: %w", err)
	}

	s := tengo.NewScript(append(src, []byte("\n"+dispatchScript)...))
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__input", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile game script %s: %w", path, err)
	}

	e := &Engine{
		compiled: compiled,
		in:       in,
		out:      out,
		tick:     time.Second / time.Duration(tickRate),
		log:      log.With(zap.String("script", path)),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		stop:     make(chan struct{}),
	}

	if err := e.runPhase("setup", protocol.InputMessage{}); err != nil {
		return nil, fmt.Errorf("script setup: %w", err)
	}
	e.flush()

	go e.run()
	e.log.Info("embedded game script started", zap.Int("tick_rate", tickRate))
	return e, nil
}

// Done reports whether the script has stopped, and with what error.
func (e *Engine) Done() (bool, error) {
	if !e.done.Load() {
		return false, nil
	}
	if errp := e.exit.Load(); errp != nil {
		return true, *errp
	}
	return true, nil
}

// Close stops the tick loop.
func (e *Engine) Close() error {
	if !e.done.Load() {
		close(e.stop)
	}
	return nil
}

func (e *Engine) run() {
	defer e.done.Store(true)

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}

		input, err := e.drainInput()
		if err != nil {
			e.log.Warn("drain input", zap.Error(err))
			continue
		}
		if err := e.runPhase("update", input); err != nil {
			// A crashed script is the embedded analog of a dead
			// interpreter process: report and stop.
			e.log.Error("game script failed", zap.Error(err))
			e.exit.Store(&err)
			return
		}
		e.flush()
	}
}

func (e *Engine) drainInput() (protocol.InputMessage, error) {
	payload, err := e.in.TryReceive()
	if err != nil || payload == nil {
		return protocol.InputMessage{}, err
	}
	return protocol.DecodeInput(payload)
}

func (e *Engine) runPhase(phase string, input protocol.InputMessage) error {
	keys := make([]any, 0, len(input.KeyPresses))
	for _, k := range input.KeyPresses {
		keys = append(keys, int(k))
	}
	clicks := make([]any, 0, len(input.Clicks))
	for _, c := range input.Clicks {
		clicks = append(clicks, map[string]any{"x": c.X, "y": c.Y})
	}

	if err := e.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := e.compiled.Set("__engine", e.builtins()); err != nil {
		return err
	}
	if err := e.compiled.Set("__state", e.state); err != nil {
		return err
	}
	if err := e.compiled.Set("__input", map[string]any{"key_presses": keys, "clicks": clicks}); err != nil {
		return err
	}
	return e.compiled.Run()
}

// flush sends the pending batch if there is one and the outbound slot is
// free; otherwise the changes stay pending and the next tick's ride along.
func (e *Engine) flush() {
	if e.pending.Empty() {
		return
	}
	payload, err := json.Marshal(e.pending)
	if err != nil {
		e.log.Error("encode update batch", zap.Error(err))
		e.pending = protocol.UpdateBatch{}
		return
	}
	ok, err := e.out.TrySend(payload)
	if err != nil {
		e.log.Warn("send update batch", zap.Error(err))
		return
	}
	if ok {
		e.pending = protocol.UpdateBatch{}
	}
}
