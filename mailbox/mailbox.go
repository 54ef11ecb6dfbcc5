// Package mailbox implements the single-slot file channel both sides of the
// exchange protocol share. A mailbox holds at most one pending message; a
// non-empty file is the "unconsumed" signal, and truncating it back to zero
// length is the drain. Sends into an occupied slot fail and the producer is
// expected to retry with fresher content next tick, which is the protocol's
// whole backpressure story: a slow consumer makes the producer skip
// intermediate frames instead of queueing them.
package mailbox

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// Mailbox is one direction of the exchange. Exactly one producer and one
// consumer may use a given path; the sidecar lock only guards against torn
// reads during a concurrent write, not against a second producer.
type Mailbox struct {
	path string
	lock *flock.Flock
}

// New returns a mailbox backed by the given file. The advisory lock lives in
// a sidecar next to it because the data file itself gets truncated as part of
// the protocol and its byte contents must stay exactly what the producer
// wrote.
func New(path string) *Mailbox {
	return &Mailbox{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (m *Mailbox) Path() string { return m.path }

// Scrub creates or empties the mailbox. Called at session start and teardown
// so a crashed session can't leak a stale message into the next one.
func (m *Mailbox) Scrub() error {
	if err := os.WriteFile(m.path, nil, 0o644); err != nil {
		return fmt.Errorf("scrub mailbox %s: %w", m.path, err)
	}
	return nil
}

// TrySend writes payload only if the slot is currently empty. It returns
// false when the previous message hasn't been drained yet; the payload is
// dropped and the caller retries next tick.
func (m *Mailbox) TrySend(payload []byte) (bool, error) {
	locked, err := m.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("lock mailbox %s: %w", m.path, err)
	}
	if !locked {
		// Consumer is mid-drain; same outcome as an occupied slot.
		return false, nil
	}
	defer m.lock.Unlock()

	if fi, err := os.Stat(m.path); err == nil && fi.Size() > 0 {
		return false, nil
	} else if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("stat mailbox %s: %w", m.path, err)
	}

	if err := os.WriteFile(m.path, payload, 0o644); err != nil {
		return false, fmt.Errorf("write mailbox %s: %w", m.path, err)
	}
	return true, nil
}

// TryReceive returns the pending message and drains the slot, or nil when the
// slot is empty. Read and truncate happen under one lock so a writer can
// never slip a message in between and have it silently discarded.
func (m *Mailbox) TryReceive() ([]byte, error) {
	locked, err := m.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock mailbox %s: %w", m.path, err)
	}
	if !locked {
		// Producer is mid-write; pick the message up next tick.
		return nil, nil
	}
	defer m.lock.Unlock()

	payload, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mailbox %s: %w", m.path, err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	if err := os.Truncate(m.path, 0); err != nil {
		return nil, fmt.Errorf("drain mailbox %s: %w", m.path, err)
	}
	return payload, nil
}
