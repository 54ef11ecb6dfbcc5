package protocol

import "math"

// Note names a pitch in the single octave the channel protocol understands.
// Zero is the enum's unset member; C is the first real note, matching the
// channel default.
type Note int

const (
	NoteUnset Note = iota
	NoteC
	NoteCs
	NoteD
	NoteDs
	NoteE
	NoteF
	NoteFs
	NoteG
	NoteGs
	NoteA
	NoteAs
	NoteB
)

// Set reports whether the note was explicitly set in an update.
func (n Note) Set() bool { return n >= NoteC && n <= NoteB }

// Pitch returns the playback-rate multiplier for the note in equal
// temperament, relative to C. C maps to 1; each semitone multiplies by
// 2^(1/12). Unset or out-of-range notes map to 1 so they never bend a
// channel that didn't ask for it.
func (n Note) Pitch() float64 {
	if !n.Set() {
		return 1
	}
	return math.Pow(2, float64(n-NoteC)/12)
}

func (n Note) String() string {
	names := [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	if !n.Set() {
		return "unset"
	}
	return names[n-NoteC]
}
