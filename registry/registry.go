// Package registry keeps the persistent per-entity visual state the update
// stream merges into. Each kind (sprite, text block, sound channel) maps a
// producer-chosen small-integer identity to its last fully-resolved record;
// the camera is a single record with the same overlay rule. Identities are
// never deleted within a session, only overwritten.
package registry

import (
	"errors"
	"fmt"

	"github.com/skiffgames/skiff/protocol"
)

// ErrIdentityRange marks an identity outside the configured capacity. This is
// fatal misconfiguration, not a per-tick protocol hiccup: a producer that
// overflows the ceiling was built against a different engine configuration.
var ErrIdentityRange = errors.New("identity outside configured capacity")

// Capacities bounds the identity range per kind. Storage grows lazily, so
// these cost nothing until referenced; they exist to catch runaway producers.
type Capacities struct {
	Sprites  int
	Texts    int
	Channels int
}

// DefaultCapacities matches the exchange protocol's documented ceilings.
func DefaultCapacities() Capacities {
	return Capacities{Sprites: 1000, Texts: 100, Channels: 20}
}

// Registry owns every resolved record of the session. Not safe for concurrent
// use; only the main tick thread may touch it.
type Registry struct {
	caps     Capacities
	sprites  store[Sprite]
	texts    store[Text]
	channels store[Channel]
	camera   Camera
}

// New returns an empty registry with the camera at its default framing.
func New(caps Capacities) *Registry {
	return &Registry{caps: caps, camera: DefaultCamera()}
}

// ResolveSprite merges u into the stored record for id and returns the
// result. A never-seen identity is seeded from kind defaults first; the
// second return is true exactly once per identity so the caller can create
// the downstream renderer object.
func (r *Registry) ResolveSprite(id int, u protocol.SpriteUpdate) (Sprite, bool, error) {
	if id < 0 || id >= r.caps.Sprites {
		return Sprite{}, false, fmt.Errorf("sprite %d (capacity %d): %w", id, r.caps.Sprites, ErrIdentityRange)
	}
	rec, ok := r.sprites.get(id)
	if !ok {
		rec = defaultSprite()
	}
	rec = rec.overlay(u)
	r.sprites.set(id, rec)
	return rec, !ok, nil
}

// ResolveText merges u into the stored record for id. Same contract as
// ResolveSprite.
func (r *Registry) ResolveText(id int, u protocol.TextUpdate) (Text, bool, error) {
	if id < 0 || id >= r.caps.Texts {
		return Text{}, false, fmt.Errorf("text block %d (capacity %d): %w", id, r.caps.Texts, ErrIdentityRange)
	}
	rec, ok := r.texts.get(id)
	if !ok {
		rec = defaultText()
	}
	rec = rec.overlay(u)
	r.texts.set(id, rec)
	return rec, !ok, nil
}

// ResolveChannel merges u into the stored record for id. Same contract as
// ResolveSprite.
func (r *Registry) ResolveChannel(id int, u protocol.ChannelUpdate) (Channel, bool, error) {
	if id < 0 || id >= r.caps.Channels {
		return Channel{}, false, fmt.Errorf("sound channel %d (capacity %d): %w", id, r.caps.Channels, ErrIdentityRange)
	}
	rec, ok := r.channels.get(id)
	if !ok {
		rec = defaultChannel()
	}
	rec = rec.overlay(u)
	r.channels.set(id, rec)
	return rec, !ok, nil
}

// ResolveCamera merges u into the singleton camera record.
func (r *Registry) ResolveCamera(u protocol.CameraUpdate) Camera {
	r.camera = r.camera.overlay(u)
	return r.camera
}

// Camera returns the current resolved camera.
func (r *Registry) Camera() Camera { return r.camera }

// SpriteCount returns how many sprite identities have been referenced.
func (r *Registry) SpriteCount() int { return r.sprites.len() }

// TextCount returns how many text identities have been referenced.
func (r *Registry) TextCount() int { return r.texts.len() }

// ChannelCount returns how many channel identities have been referenced.
func (r *Registry) ChannelCount() int { return r.channels.len() }
