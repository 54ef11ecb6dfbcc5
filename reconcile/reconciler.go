// Package reconcile merges decoded update batches into the registry and
// forwards the resolved records to the rendering collaborators. It owns the
// per-tick error policy: a malformed record skips its batch section and gets
// logged, an identity outside capacity aborts the session, an entity is
// created downstream exactly once and deactivated (never destroyed) when its
// resolved state says hidden.
package reconcile

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/skiffgames/skiff/protocol"
	"github.com/skiffgames/skiff/registry"
)

// SpriteRenderer draws resolved sprite records. Create is called exactly once
// per identity, before the first Apply.
type SpriteRenderer interface {
	Create(id int)
	Apply(id int, rec registry.Sprite)
}

// TextRenderer draws resolved text blocks. Deactivate hides a block without
// forgetting it; a later Apply may bring it back.
type TextRenderer interface {
	Create(id int)
	Apply(id int, rec registry.Text)
	Deactivate(id int)
}

// SoundPlayer owns the audio channels. retrigger is true when this batch
// explicitly asked for a one-shot, so a later volume-only update doesn't
// replay the clip.
type SoundPlayer interface {
	RegisterSound(soundID int, filename string)
	Create(channel int)
	Apply(channel int, rec registry.Channel, retrigger bool)
}

// ImageTable maps image identities to files under the data directory.
type ImageTable interface {
	RegisterImage(imageID int, filename string)
}

// CameraRig receives the resolved camera after each batch that moved it.
type CameraRig interface {
	Apply(rec registry.Camera)
}

// Reconciler applies update batches. Single-threaded; driven by the main
// tick only.
type Reconciler struct {
	reg     *registry.Registry
	images  ImageTable
	sprites SpriteRenderer
	texts   TextRenderer
	sounds  SoundPlayer
	camera  CameraRig
	log     *zap.Logger
}

// New wires a reconciler to its collaborators.
func New(reg *registry.Registry, images ImageTable, sprites SpriteRenderer, texts TextRenderer, sounds SoundPlayer, camera CameraRig, log *zap.Logger) *Reconciler {
	return &Reconciler{
		reg:     reg,
		images:  images,
		sprites: sprites,
		texts:   texts,
		sounds:  sounds,
		camera:  camera,
		log:     log,
	}
}

// ApplyBatch resolves every record in b and hands the results downstream.
// The returned error is fatal (identity out of range); everything else is
// absorbed and logged.
func (r *Reconciler) ApplyBatch(b protocol.UpdateBatch) error {
	for _, ic := range b.ImageChanges {
		if ic.ImageID < 0 || ic.Filename == "" {
			r.log.Warn("skipping bad image registration",
				zap.Int("image_id", ic.ImageID), zap.String("filename", ic.Filename))
			continue
		}
		r.images.RegisterImage(ic.ImageID, ic.Filename)
	}

	for _, sc := range b.SoundChanges {
		if sc.SoundID < 0 || sc.Filename == "" {
			r.log.Warn("skipping bad sound registration",
				zap.Int("sound_id", sc.SoundID), zap.String("filename", sc.Filename))
			continue
		}
		r.sounds.RegisterSound(sc.SoundID, sc.Filename)
	}

	for _, u := range b.SpriteChanges {
		if !protocol.ISet(u.SpriteID) {
			r.log.Warn("sprite update without identity, skipping")
			continue
		}
		rec, created, err := r.reg.ResolveSprite(u.SpriteID, u)
		if err != nil {
			return fmt.Errorf("apply sprite update: %w", err)
		}
		if created {
			r.sprites.Create(u.SpriteID)
		}
		r.sprites.Apply(u.SpriteID, rec)
	}

	for _, u := range b.TextChanges {
		if !protocol.ISet(u.TextID) {
			r.log.Warn("text update without identity, skipping")
			continue
		}
		rec, created, err := r.reg.ResolveText(u.TextID, u)
		if err != nil {
			return fmt.Errorf("apply text update: %w", err)
		}
		if created {
			r.texts.Create(u.TextID)
		}
		if rec.Hidden() {
			r.texts.Deactivate(u.TextID)
		} else {
			r.texts.Apply(u.TextID, rec)
		}
	}

	for _, u := range b.ChannelChanges {
		if !protocol.ISet(u.ChannelID) {
			r.log.Warn("channel update without identity, skipping")
			continue
		}
		rec, created, err := r.reg.ResolveChannel(u.ChannelID, u)
		if err != nil {
			return fmt.Errorf("apply channel update: %w", err)
		}
		if created {
			r.sounds.Create(u.ChannelID)
		}
		retrigger := protocol.ISet(u.Playmode) && u.Playmode > 1
		r.sounds.Apply(u.ChannelID, rec, retrigger)
	}

	if b.Camera != nil {
		r.camera.Apply(r.reg.ResolveCamera(*b.Camera))
	}

	return nil
}

// Fatal reports whether err must end the session instead of skipping a tick.
func Fatal(err error) bool {
	return errors.Is(err, registry.ErrIdentityRange)
}
