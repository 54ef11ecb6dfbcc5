package reconcile

import (
	"testing"

	"go.uber.org/zap"

	"github.com/skiffgames/skiff/protocol"
	"github.com/skiffgames/skiff/registry"
)

type fakeSprites struct {
	created []int
	applied map[int]registry.Sprite
}

func (f *fakeSprites) Create(id int) { f.created = append(f.created, id) }
func (f *fakeSprites) Apply(id int, rec registry.Sprite) {
	if f.applied == nil {
		f.applied = map[int]registry.Sprite{}
	}
	f.applied[id] = rec
}

type fakeTexts struct {
	created     []int
	applied     map[int]registry.Text
	deactivated []int
}

func (f *fakeTexts) Create(id int) { f.created = append(f.created, id) }
func (f *fakeTexts) Apply(id int, rec registry.Text) {
	if f.applied == nil {
		f.applied = map[int]registry.Text{}
	}
	f.applied[id] = rec
}
func (f *fakeTexts) Deactivate(id int) { f.deactivated = append(f.deactivated, id) }

type soundCall struct {
	rec       registry.Channel
	retrigger bool
}

type fakeSounds struct {
	registered map[int]string
	created    []int
	calls      map[int][]soundCall
}

func (f *fakeSounds) RegisterSound(id int, filename string) {
	if f.registered == nil {
		f.registered = map[int]string{}
	}
	f.registered[id] = filename
}
func (f *fakeSounds) Create(ch int) { f.created = append(f.created, ch) }
func (f *fakeSounds) Apply(ch int, rec registry.Channel, retrigger bool) {
	if f.calls == nil {
		f.calls = map[int][]soundCall{}
	}
	f.calls[ch] = append(f.calls[ch], soundCall{rec: rec, retrigger: retrigger})
}

type fakeImages struct {
	registered map[int]string
}

func (f *fakeImages) RegisterImage(id int, filename string) {
	if f.registered == nil {
		f.registered = map[int]string{}
	}
	f.registered[id] = filename
}

type fakeCamera struct {
	applied []registry.Camera
}

func (f *fakeCamera) Apply(rec registry.Camera) { f.applied = append(f.applied, rec) }

type harness struct {
	rec     *Reconciler
	sprites *fakeSprites
	texts   *fakeTexts
	sounds  *fakeSounds
	images  *fakeImages
	camera  *fakeCamera
}

func newHarness(caps registry.Capacities) *harness {
	h := &harness{
		sprites: &fakeSprites{},
		texts:   &fakeTexts{},
		sounds:  &fakeSounds{},
		images:  &fakeImages{},
		camera:  &fakeCamera{},
	}
	h.rec = New(registry.New(caps), h.images, h.sprites, h.texts, h.sounds, h.camera, zap.NewNop())
	return h
}

func spriteChange(id int, mut func(*protocol.SpriteUpdate)) protocol.SpriteUpdate {
	u := protocol.NewSpriteUpdate()
	u.SpriteID = id
	if mut != nil {
		mut(&u)
	}
	return u
}

func textChange(id int, mut func(*protocol.TextUpdate)) protocol.TextUpdate {
	u := protocol.NewTextUpdate()
	u.TextID = id
	if mut != nil {
		mut(&u)
	}
	return u
}

func channelChange(id int, mut func(*protocol.ChannelUpdate)) protocol.ChannelUpdate {
	u := protocol.NewChannelUpdate()
	u.ChannelID = id
	if mut != nil {
		mut(&u)
	}
	return u
}

func TestCreateOncePerIdentity(t *testing.T) {
	h := newHarness(registry.DefaultCapacities())

	batch := protocol.UpdateBatch{
		SpriteChanges: []protocol.SpriteUpdate{
			spriteChange(3, func(u *protocol.SpriteUpdate) { u.X = 5 }),
		},
	}
	for i := 0; i < 3; i++ {
		if err := h.rec.ApplyBatch(batch); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	if len(h.sprites.created) != 1 || h.sprites.created[0] != 3 {
		t.Fatalf("created = %v, want exactly one creation of id 3", h.sprites.created)
	}
	got := h.sprites.applied[3]
	if got.X != 5 || got.Size != 1 || got.Alpha != 1 {
		t.Fatalf("applied record = %+v", got)
	}
}

func TestHiddenTextDeactivates(t *testing.T) {
	h := newHarness(registry.DefaultCapacities())

	show := protocol.UpdateBatch{TextChanges: []protocol.TextUpdate{
		textChange(0, func(u *protocol.TextUpdate) { u.Text = "hi"; u.Width = 8; u.Height = 2 }),
	}}
	if err := h.rec.ApplyBatch(show); err != nil {
		t.Fatalf("show: %v", err)
	}
	if len(h.texts.deactivated) != 0 {
		t.Fatalf("visible block was deactivated")
	}

	hide := protocol.UpdateBatch{TextChanges: []protocol.TextUpdate{
		textChange(0, func(u *protocol.TextUpdate) { u.Width = 0 }),
	}}
	if err := h.rec.ApplyBatch(hide); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if len(h.texts.deactivated) != 1 || h.texts.deactivated[0] != 0 {
		t.Fatalf("deactivated = %v", h.texts.deactivated)
	}
	if len(h.texts.created) != 1 {
		t.Fatalf("hiding must not recreate the block: created=%v", h.texts.created)
	}

	// A block born hidden is still created once, then deactivated.
	born := protocol.UpdateBatch{TextChanges: []protocol.TextUpdate{
		textChange(1, func(u *protocol.TextUpdate) { u.Text = "later" }),
	}}
	if err := h.rec.ApplyBatch(born); err != nil {
		t.Fatalf("born hidden: %v", err)
	}
	if len(h.texts.created) != 2 {
		t.Fatalf("created = %v", h.texts.created)
	}
	if len(h.texts.deactivated) != 2 || h.texts.deactivated[1] != 1 {
		t.Fatalf("deactivated = %v", h.texts.deactivated)
	}
}

func TestChannelRetriggerOnlyOnExplicitOneShot(t *testing.T) {
	h := newHarness(registry.DefaultCapacities())

	oneShot := protocol.UpdateBatch{ChannelChanges: []protocol.ChannelUpdate{
		channelChange(1, func(u *protocol.ChannelUpdate) { u.Playmode = 2 }),
	}}
	if err := h.rec.ApplyBatch(oneShot); err != nil {
		t.Fatalf("one shot: %v", err)
	}

	volumeOnly := protocol.UpdateBatch{ChannelChanges: []protocol.ChannelUpdate{
		channelChange(1, func(u *protocol.ChannelUpdate) { u.Volume = 0.1 }),
	}}
	if err := h.rec.ApplyBatch(volumeOnly); err != nil {
		t.Fatalf("volume only: %v", err)
	}

	loop := protocol.UpdateBatch{ChannelChanges: []protocol.ChannelUpdate{
		channelChange(1, func(u *protocol.ChannelUpdate) { u.Playmode = 1 }),
	}}
	if err := h.rec.ApplyBatch(loop); err != nil {
		t.Fatalf("loop: %v", err)
	}

	calls := h.sounds.calls[1]
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	if !calls[0].retrigger {
		t.Fatalf("explicit playmode 2 must retrigger")
	}
	if calls[1].retrigger {
		t.Fatalf("volume-only update must not retrigger even though resolved playmode is still 2")
	}
	if calls[1].rec.Playmode != 2 || calls[1].rec.Volume != 0.1 {
		t.Fatalf("resolved record after volume update = %+v", calls[1].rec)
	}
	if calls[2].retrigger {
		t.Fatalf("loop request is not a one-shot")
	}
	if len(h.sounds.created) != 1 {
		t.Fatalf("channel created %d times", len(h.sounds.created))
	}
}

func TestRegistrationsRouted(t *testing.T) {
	h := newHarness(registry.DefaultCapacities())

	batch := protocol.UpdateBatch{
		ImageChanges: []protocol.ImageChange{
			{ImageID: 0, Filename: "player.png"},
			{ImageID: -1, Filename: "bad.png"}, // skipped
			{ImageID: 1, Filename: ""},         // skipped
		},
		SoundChanges: []protocol.SoundChange{
			{SoundID: 0, Filename: "beep.wav"},
		},
	}
	if err := h.rec.ApplyBatch(batch); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(h.images.registered) != 1 || h.images.registered[0] != "player.png" {
		t.Fatalf("images = %v", h.images.registered)
	}
	if h.sounds.registered[0] != "beep.wav" {
		t.Fatalf("sounds = %v", h.sounds.registered)
	}
}

func TestCameraApplied(t *testing.T) {
	h := newHarness(registry.DefaultCapacities())

	u := protocol.NewCameraUpdate()
	u.Size = 4
	if err := h.rec.ApplyBatch(protocol.UpdateBatch{Camera: &u}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := h.rec.ApplyBatch(protocol.UpdateBatch{}); err != nil {
		t.Fatalf("apply empty: %v", err)
	}

	if len(h.camera.applied) != 1 {
		t.Fatalf("camera applied %d times, want 1", len(h.camera.applied))
	}
	got := h.camera.applied[0]
	if got.Size != 4 || got.X != 13.5 {
		t.Fatalf("camera = %+v", got)
	}
}

func TestIdentityOverflowIsFatal(t *testing.T) {
	h := newHarness(registry.Capacities{Sprites: 4, Texts: 4, Channels: 4})

	batch := protocol.UpdateBatch{
		SpriteChanges: []protocol.SpriteUpdate{spriteChange(4, nil)},
	}
	err := h.rec.ApplyBatch(batch)
	if err == nil {
		t.Fatalf("overflow should error")
	}
	if !Fatal(err) {
		t.Fatalf("overflow error should be fatal, got %v", err)
	}

	// Records without an identity are skipped, not fatal.
	anon := protocol.UpdateBatch{
		SpriteChanges: []protocol.SpriteUpdate{protocol.NewSpriteUpdate()},
	}
	if err := h.rec.ApplyBatch(anon); err != nil {
		t.Fatalf("anonymous record should be skipped, got %v", err)
	}
	if len(h.sprites.created) != 0 {
		t.Fatalf("anonymous record created a sprite")
	}
}
