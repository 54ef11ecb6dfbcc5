// Package session ties one engine run to one exchange folder: configuration,
// the two mailbox files, and their start/teardown scrubbing. It replaces any
// notion of process-wide path state; everything downstream gets the Session
// by reference.
package session

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/skiffgames/skiff/mailbox"
)

// Session is one live exchange. Inbound carries collected input to the logic
// process (the logic side drains it); Outbound carries update batches back
// (the engine drains it).
type Session struct {
	cfg      Config
	Inbound  *mailbox.Mailbox
	Outbound *mailbox.Mailbox
	log      *zap.Logger
}

// New prepares the exchange folder and scrubs both mailboxes so no message
// from an earlier session survives into this one.
func New(cfg Config, log *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Exchange.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create exchange dir: %w", err)
	}

	s := &Session{
		cfg:      cfg,
		Inbound:  mailbox.New(cfg.InputPath()),
		Outbound: mailbox.New(cfg.UpdatePath()),
		log:      log,
	}
	if err := s.scrub(); err != nil {
		return nil, err
	}
	log.Info("session ready",
		zap.String("exchange", cfg.Exchange.Dir),
		zap.String("data", cfg.ResolvedDataDir()))
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Close scrubs both mailboxes again so a follow-up session starts clean even
// if this one ended mid-message.
func (s *Session) Close() error {
	return s.scrub()
}

func (s *Session) scrub() error {
	if err := s.Inbound.Scrub(); err != nil {
		return err
	}
	return s.Outbound.Scrub()
}
