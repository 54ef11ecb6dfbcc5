package obj

import (
	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"

	"github.com/skiffgames/skiff/assets"
	"github.com/skiffgames/skiff/registry"
)

type channelNode struct {
	player   *audio.Player
	filename string
	loop     bool
	pitch    float64
}

// ChannelRack owns the audio side: a clip table (sound id to file) and one
// player per referenced channel. Players are rebuilt only when the clip,
// loop mode or effective pitch changes; volume changes touch the live
// player.
type ChannelRack struct {
	lib *assets.Library
	log *zap.Logger

	files        map[int]string
	nodes        map[int]*channelNode
	missing      map[string]bool
	unregistered map[int]bool
}

// NewChannelRack wires the rack to its clip source.
func NewChannelRack(lib *assets.Library, log *zap.Logger) *ChannelRack {
	return &ChannelRack{
		lib:          lib,
		log:          log,
		files:        map[int]string{},
		nodes:        map[int]*channelNode{},
		missing:      map[string]bool{},
		unregistered: map[int]bool{},
	}
}

// RegisterSound points a sound identity at a data-dir audio file.
func (r *ChannelRack) RegisterSound(id int, filename string) {
	r.files[id] = filename
	delete(r.missing, filename)
	delete(r.unregistered, id)
}

// Create allocates the node for a first-referenced channel.
func (r *ChannelRack) Create(channel int) {
	r.nodes[channel] = &channelNode{}
}

// Apply drives the channel from its resolved record. Playmode 0 stops, 1
// loops, above 1 plays once; retrigger is true only when this tick's update
// explicitly asked for the one-shot.
func (r *ChannelRack) Apply(channel int, rec registry.Channel, retrigger bool) {
	n, ok := r.nodes[channel]
	if !ok {
		return
	}

	switch {
	case rec.Playmode == 0:
		if n.player != nil && n.player.IsPlaying() {
			n.player.Pause()
		}

	case rec.Playmode == 1:
		if !r.ensurePlayer(channel, n, rec, true) {
			return
		}
		n.player.SetVolume(clampVolume(rec.Volume))
		if !n.player.IsPlaying() {
			n.player.Play()
		}

	default:
		if !r.ensurePlayer(channel, n, rec, false) {
			return
		}
		n.player.SetVolume(clampVolume(rec.Volume))
		if retrigger {
			if err := n.player.Rewind(); err != nil {
				r.log.Warn("rewind channel", zap.Int("channel", channel), zap.Error(err))
			}
			n.player.Play()
		}
	}
}

// ensurePlayer makes n hold a player for the record's clip, loop mode and
// pitch, rebuilding the old one if any of those changed.
func (r *ChannelRack) ensurePlayer(channel int, n *channelNode, rec registry.Channel, loop bool) bool {
	filename, ok := r.files[rec.SoundID]
	if !ok {
		if !r.unregistered[rec.SoundID] {
			r.unregistered[rec.SoundID] = true
			r.log.Error("channel references unregistered sound",
				zap.Int("channel", channel), zap.Int("sound_id", rec.SoundID))
		}
		return false
	}

	pitch := rec.EffectivePitch()
	if n.player != nil && n.filename == filename && n.loop == loop && n.pitch == pitch {
		return true
	}

	if n.player != nil {
		_ = n.player.Close()
		n.player = nil
	}

	player, err := r.lib.NewChannelPlayer(filename, loop, pitch)
	if err != nil {
		if !r.missing[filename] {
			r.missing[filename] = true
			r.log.Error("sound clip unavailable",
				zap.Int("channel", channel),
				zap.String("filename", filename),
				zap.Error(err))
		}
		return false
	}

	n.player = player
	n.filename = filename
	n.loop = loop
	n.pitch = pitch
	return true
}

// Close stops and releases every player.
func (r *ChannelRack) Close() {
	for _, n := range r.nodes {
		if n.player != nil {
			_ = n.player.Close()
		}
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
