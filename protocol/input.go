package protocol

import "encoding/json"

// Key is one entry of the fixed key-press enumeration shared with the logic
// process. The values are the wire format and must not be reordered.
type Key int

const (
	KeyUp Key = iota
	KeyRight
	KeyDown
	KeyLeft
	KeyAction1
	KeyAction2
	KeyAction3
	KeyAction4
)

// Click is one pointer click in world coordinates.
type Click struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InputMessage is one inbound mailbox message: everything the player did
// since the engine's last successful send. Held keys reappear every tick they
// stay down.
type InputMessage struct {
	KeyPresses []Key   `json:"key_presses"`
	Clicks     []Click `json:"clicks"`
}

// Empty reports whether there is anything worth sending.
func (m InputMessage) Empty() bool {
	return len(m.KeyPresses) == 0 && len(m.Clicks) == 0
}

// AddKey records a key press, keeping at most one entry per key. Sends can be
// skipped for several ticks while the logic side catches up, so the pending
// message accumulates; clicks stack up but a held key must not.
func (m *InputMessage) AddKey(k Key) {
	for _, have := range m.KeyPresses {
		if have == k {
			return
		}
	}
	m.KeyPresses = append(m.KeyPresses, k)
}

// AddClick records a click.
func (m *InputMessage) AddClick(x, y float64) {
	m.Clicks = append(m.Clicks, Click{X: x, Y: y})
}

// Encode serializes the message for the inbound mailbox. Nil slices are
// normalized so the logic side always sees both arrays.
func (m InputMessage) Encode() ([]byte, error) {
	if m.KeyPresses == nil {
		m.KeyPresses = []Key{}
	}
	if m.Clicks == nil {
		m.Clicks = []Click{}
	}
	return json.Marshal(m)
}

// DecodeInput parses one inbound mailbox payload.
func DecodeInput(payload []byte) (InputMessage, error) {
	var m InputMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return InputMessage{}, err
	}
	return m, nil
}
