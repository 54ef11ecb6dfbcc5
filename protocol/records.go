package protocol

import "encoding/json"

// Update records arrive once per tick from the logic process. Every field may
// be the sentinel for its type; the constructors return all-sentinel records
// so that decoding JSON over them leaves unmentioned keys unset. Records are
// transient: they are consumed by the reconciler and discarded.

// ImageChange registers (or repoints) an image identity to a file under the
// session data directory.
type ImageChange struct {
	ImageID  int    `json:"image_id"`
	Filename string `json:"filename"`
}

// SpriteUpdate is a sparse change to one sprite's visual state.
type SpriteUpdate struct {
	SpriteID int     `json:"sprite_id"`
	ImageID  int     `json:"image_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Size     float64 `json:"size"`
	Angle    float64 `json:"angle"`
	Alpha    float64 `json:"alpha"`
}

// NewSpriteUpdate returns a sprite update with every field unset.
func NewSpriteUpdate() SpriteUpdate {
	return SpriteUpdate{
		SpriteID: UnsetI,
		ImageID:  UnsetI,
		X:        UnsetF,
		Y:        UnsetF,
		Z:        UnsetF,
		Size:     UnsetF,
		Angle:    UnsetF,
		Alpha:    UnsetF,
	}
}

func (u *SpriteUpdate) UnmarshalJSON(b []byte) error {
	*u = NewSpriteUpdate()
	type plain SpriteUpdate
	return json.Unmarshal(b, (*plain)(u))
}

// TextUpdate is a sparse change to one text block.
type TextUpdate struct {
	TextID          int     `json:"text_id"`
	Text            string  `json:"text"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	FontSize        float64 `json:"font_size"`
	FontColor       Color   `json:"font_color"`
	BackgroundColor Color   `json:"background_color"`
	BorderColor     Color   `json:"border_color"`
}

// NewTextUpdate returns a text update with every field unset.
func NewTextUpdate() TextUpdate {
	return TextUpdate{
		TextID:          UnsetI,
		Text:            UnsetS,
		X:               UnsetF,
		Y:               UnsetF,
		Width:           UnsetF,
		Height:          UnsetF,
		FontSize:        UnsetF,
		FontColor:       UnsetColor(),
		BackgroundColor: UnsetColor(),
		BorderColor:     UnsetColor(),
	}
}

func (u *TextUpdate) UnmarshalJSON(b []byte) error {
	*u = NewTextUpdate()
	type plain TextUpdate
	return json.Unmarshal(b, (*plain)(u))
}

// SoundChange registers (or repoints) a sound identity to an audio file under
// the session data directory.
type SoundChange struct {
	SoundID  int    `json:"sound_id"`
	Filename string `json:"filename"`
}

// ChannelUpdate is a sparse change to one sound channel. Playmode is the
// channel's tri-state: 0 stops the channel, 1 loops the clip, anything above
// plays it once.
type ChannelUpdate struct {
	ChannelID int     `json:"channel_id"`
	SoundID   int     `json:"sound_id"`
	Volume    float64 `json:"volume"`
	Pitch     float64 `json:"pitch"`
	Note      Note    `json:"note"`
	Playmode  int     `json:"playmode"`
}

// NewChannelUpdate returns a channel update with every field unset.
func NewChannelUpdate() ChannelUpdate {
	return ChannelUpdate{
		ChannelID: UnsetI,
		SoundID:   UnsetI,
		Volume:    UnsetF,
		Pitch:     UnsetF,
		Note:      NoteUnset,
		Playmode:  UnsetI,
	}
}

func (u *ChannelUpdate) UnmarshalJSON(b []byte) error {
	*u = NewChannelUpdate()
	type plain ChannelUpdate
	return json.Unmarshal(b, (*plain)(u))
}

// CameraUpdate is a sparse change to the singleton camera.
type CameraUpdate struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Angle float64 `json:"angle"`
}

// NewCameraUpdate returns a camera update with every field unset.
func NewCameraUpdate() CameraUpdate {
	return CameraUpdate{X: UnsetF, Y: UnsetF, Size: UnsetF, Angle: UnsetF}
}

func (u *CameraUpdate) UnmarshalJSON(b []byte) error {
	*u = NewCameraUpdate()
	type plain CameraUpdate
	return json.Unmarshal(b, (*plain)(u))
}

// UpdateBatch is one outbound mailbox message: everything the logic process
// changed since its last successful send. All sections are optional.
type UpdateBatch struct {
	ImageChanges   []ImageChange   `json:"image_changes,omitempty"`
	SpriteChanges  []SpriteUpdate  `json:"sprite_changes,omitempty"`
	TextChanges    []TextUpdate    `json:"text_changes,omitempty"`
	SoundChanges   []SoundChange   `json:"sound_changes,omitempty"`
	ChannelChanges []ChannelUpdate `json:"channel_changes,omitempty"`
	Camera         *CameraUpdate   `json:"camera_changes,omitempty"`
}

// Empty reports whether the batch carries no changes at all.
func (b UpdateBatch) Empty() bool {
	return len(b.ImageChanges) == 0 &&
		len(b.SpriteChanges) == 0 &&
		len(b.TextChanges) == 0 &&
		len(b.SoundChanges) == 0 &&
		len(b.ChannelChanges) == 0 &&
		b.Camera == nil
}

// DecodeBatch parses one outbound mailbox payload.
func DecodeBatch(payload []byte) (UpdateBatch, error) {
	var b UpdateBatch
	if err := json.Unmarshal(payload, &b); err != nil {
		return UpdateBatch{}, err
	}
	return b, nil
}
