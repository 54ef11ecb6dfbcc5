package protocol

import "image/color"

// The exchange format is flat: every record always carries every field, and a
// producer marks the fields it did not touch with a reserved "unset" value
// instead of omitting them. Each sentinel lives strictly outside its field's
// legal domain so it can never collide with a real value.
const (
	// UnsetF is the canonical unset marker for float fields. Anything below
	// unsetFloor counts, so producers that round or jitter the marker still
	// parse as unset.
	UnsetF = -9999.0

	// UnsetI is the canonical unset marker for integer fields (identities,
	// enums, flags).
	UnsetI = -9999

	// UnsetS marks an unset string field. NUL bytes can't appear in any text a
	// producer would legitimately send.
	UnsetS = "\x00unset\x00"

	unsetFloor = -9000.0
)

// FSet reports whether a float field was explicitly set in an update.
func FSet(v float64) bool { return v > unsetFloor }

// ISet reports whether an integer field was explicitly set in an update.
func ISet(v int) bool { return float64(v) > unsetFloor }

// SSet reports whether a string field was explicitly set in an update.
func SSet(s string) bool { return s != UnsetS }

// Color is an RGB triple with 0..255 channels, serialized as a JSON array.
// Any negative channel marks the whole color unset; real colors can't reach
// negative channels through normal construction.
type Color [3]int

// UnsetColor returns the reserved not-set color.
func UnsetColor() Color { return Color{-1, -1, -1} }

// Set reports whether the color was explicitly set in an update.
func (c Color) Set() bool { return c[0] >= 0 && c[1] >= 0 && c[2] >= 0 }

// NRGBA converts a set color to its renderable form. Channels are clamped so
// a sloppy producer can't index outside the byte range.
func (c Color) NRGBA() color.NRGBA {
	clamp := func(v int) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return color.NRGBA{R: clamp(c[0]), G: clamp(c[1]), B: clamp(c[2]), A: 0xff}
}
