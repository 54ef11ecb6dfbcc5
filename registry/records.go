package registry

import "github.com/skiffgames/skiff/protocol"

// Resolved records are the last known good state of each entity: every field
// concrete, no sentinels. The registry owns them; collaborators only ever see
// copies handed out by Resolve.

// Sprite is the resolved visual state of one sprite.
type Sprite struct {
	ImageID int
	X       float64
	Y       float64
	Z       float64
	Size    float64
	Angle   float64
	Alpha   float64
}

func defaultSprite() Sprite {
	return Sprite{ImageID: 0, Size: 1, Alpha: 1}
}

func (r Sprite) overlay(u protocol.SpriteUpdate) Sprite {
	if protocol.ISet(u.ImageID) {
		r.ImageID = u.ImageID
	}
	if protocol.FSet(u.X) {
		r.X = u.X
	}
	if protocol.FSet(u.Y) {
		r.Y = u.Y
	}
	if protocol.FSet(u.Z) {
		r.Z = u.Z
	}
	if protocol.FSet(u.Size) {
		r.Size = u.Size
	}
	if protocol.FSet(u.Angle) {
		r.Angle = u.Angle
	}
	if protocol.FSet(u.Alpha) {
		r.Alpha = u.Alpha
	}
	return r
}

// Text is the resolved state of one text block. A block whose Width or
// Height is zero or below is hidden.
type Text struct {
	Text            string
	X               float64
	Y               float64
	Width           float64
	Height          float64
	FontSize        float64
	FontColor       protocol.Color
	BackgroundColor protocol.Color
	BorderColor     protocol.Color
}

func defaultText() Text {
	return Text{
		FontSize:        16,
		FontColor:       protocol.Color{255, 255, 255},
		BackgroundColor: protocol.Color{0, 0, 0},
		BorderColor:     protocol.Color{0, 0, 0},
	}
}

// Hidden reports whether the block should be deactivated rather than drawn.
func (r Text) Hidden() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Text) overlay(u protocol.TextUpdate) Text {
	if protocol.SSet(u.Text) {
		r.Text = u.Text
	}
	if protocol.FSet(u.X) {
		r.X = u.X
	}
	if protocol.FSet(u.Y) {
		r.Y = u.Y
	}
	if protocol.FSet(u.Width) {
		r.Width = u.Width
	}
	if protocol.FSet(u.Height) {
		r.Height = u.Height
	}
	if protocol.FSet(u.FontSize) {
		r.FontSize = u.FontSize
	}
	if u.FontColor.Set() {
		r.FontColor = u.FontColor
	}
	if u.BackgroundColor.Set() {
		r.BackgroundColor = u.BackgroundColor
	}
	if u.BorderColor.Set() {
		r.BorderColor = u.BorderColor
	}
	return r
}

// Channel is the resolved state of one sound channel.
type Channel struct {
	SoundID  int
	Volume   float64
	Pitch    float64
	Note     protocol.Note
	Playmode int
}

func defaultChannel() Channel {
	return Channel{SoundID: 0, Volume: 0.5, Pitch: 1, Note: protocol.NoteC, Playmode: 0}
}

// EffectivePitch is the playback-rate multiplier for the channel: the
// explicit pitch field times the note's equal-temperament offset. The note
// contributes only when it isn't the default C, so plain sound effects play
// at face value.
func (r Channel) EffectivePitch() float64 {
	p := r.Pitch
	if p <= 0 {
		p = 1
	}
	if r.Note.Set() && r.Note != protocol.NoteC {
		p *= r.Note.Pitch()
	}
	return p
}

func (r Channel) overlay(u protocol.ChannelUpdate) Channel {
	if protocol.ISet(u.SoundID) {
		r.SoundID = u.SoundID
	}
	if protocol.FSet(u.Volume) {
		r.Volume = u.Volume
	}
	if protocol.FSet(u.Pitch) {
		r.Pitch = u.Pitch
	}
	if u.Note.Set() {
		r.Note = u.Note
	}
	if protocol.ISet(u.Playmode) {
		r.Playmode = u.Playmode
	}
	return r
}

// Camera is the resolved state of the singleton camera. X and Y are the view
// center in world units; Size is half the vertical extent the view covers.
type Camera struct {
	X     float64
	Y     float64
	Size  float64
	Angle float64
}

// DefaultCamera frames the whole 28x16 field: unit-sized sprites centered on
// integer coordinates 0..27 x 0..15 exactly fill the view.
func DefaultCamera() Camera {
	return Camera{X: 13.5, Y: 7.5, Size: 8}
}

func (r Camera) overlay(u protocol.CameraUpdate) Camera {
	if protocol.FSet(u.X) {
		r.X = u.X
	}
	if protocol.FSet(u.Y) {
		r.Y = u.Y
	}
	if protocol.FSet(u.Size) {
		r.Size = u.Size
	}
	if protocol.FSet(u.Angle) {
		r.Angle = u.Angle
	}
	return r
}
