package registry

import (
	"errors"
	"testing"

	"github.com/skiffgames/skiff/protocol"
)

func TestFirstReferenceDefaulting(t *testing.T) {
	r := New(DefaultCapacities())

	u := protocol.NewSpriteUpdate()
	u.X = 5
	u.ImageID = 2

	rec, created, err := r.ResolveSprite(3, u)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !created {
		t.Fatalf("first reference should report creation")
	}
	want := Sprite{ImageID: 2, X: 5, Y: 0, Z: 0, Size: 1, Angle: 0, Alpha: 1}
	if rec != want {
		t.Fatalf("resolved = %+v, want %+v", rec, want)
	}

	// All-sentinel first reference yields pure defaults.
	rec, created, err = r.ResolveSprite(7, protocol.NewSpriteUpdate())
	if err != nil || !created {
		t.Fatalf("resolve blank: created=%v err=%v", created, err)
	}
	if rec != defaultSprite() {
		t.Fatalf("blank first reference = %+v, want defaults", rec)
	}
}

func TestOverlayKeepsUnsetFields(t *testing.T) {
	r := New(DefaultCapacities())

	first := protocol.NewSpriteUpdate()
	first.X = 5
	first.ImageID = 2
	if _, _, err := r.ResolveSprite(3, first); err != nil {
		t.Fatalf("seed: %v", err)
	}

	second := protocol.NewSpriteUpdate()
	second.Y = 9
	rec, created, err := r.ResolveSprite(3, second)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if created {
		t.Fatalf("known identity must not report creation again")
	}
	if rec.X != 5 || rec.Y != 9 || rec.ImageID != 2 {
		t.Fatalf("overlay broke unrelated fields: %+v", rec)
	}
}

func TestIdempotentAllSentinelResolve(t *testing.T) {
	r := New(DefaultCapacities())

	seed := protocol.NewSpriteUpdate()
	seed.X = 1.5
	seed.Angle = 30
	before, _, err := r.ResolveSprite(0, seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	for i := 0; i < 3; i++ {
		after, created, err := r.ResolveSprite(0, protocol.NewSpriteUpdate())
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if created {
			t.Fatalf("resolve %d reported creation", i)
		}
		if after != before {
			t.Fatalf("resolve %d changed the record: %+v != %+v", i, after, before)
		}
	}
}

func TestFieldIndependence(t *testing.T) {
	r := New(DefaultCapacities())
	if _, _, err := r.ResolveText(0, protocol.NewTextUpdate()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name  string
		apply func(*protocol.TextUpdate)
		check func(t *testing.T, prev, cur Text)
	}{
		{
			name:  "text_only",
			apply: func(u *protocol.TextUpdate) { u.Text = "hello" },
			check: func(t *testing.T, prev, cur Text) {
				if cur.Text != "hello" {
					t.Fatalf("text not applied")
				}
				prev.Text = cur.Text
				if cur != prev {
					t.Fatalf("other fields changed: %+v", cur)
				}
			},
		},
		{
			name:  "width_only",
			apply: func(u *protocol.TextUpdate) { u.Width = 8 },
			check: func(t *testing.T, prev, cur Text) {
				if cur.Width != 8 {
					t.Fatalf("width not applied")
				}
				prev.Width = cur.Width
				if cur != prev {
					t.Fatalf("other fields changed: %+v", cur)
				}
			},
		},
		{
			name:  "font_color_only",
			apply: func(u *protocol.TextUpdate) { u.FontColor = protocol.Color{0, 0, 255} },
			check: func(t *testing.T, prev, cur Text) {
				if cur.FontColor != (protocol.Color{0, 0, 255}) {
					t.Fatalf("font color not applied")
				}
				prev.FontColor = cur.FontColor
				if cur != prev {
					t.Fatalf("other fields changed: %+v", cur)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			prev, _, err := r.ResolveText(0, protocol.NewTextUpdate())
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			u := protocol.NewTextUpdate()
			c.apply(&u)
			cur, _, err := r.ResolveText(0, u)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			c.check(t, prev, cur)
		})
	}
}

func TestChannelDefaultsAndPitch(t *testing.T) {
	r := New(DefaultCapacities())

	u := protocol.NewChannelUpdate()
	u.Playmode = 1
	rec, created, err := r.ResolveChannel(1, u)
	if err != nil || !created {
		t.Fatalf("resolve: created=%v err=%v", created, err)
	}
	want := Channel{SoundID: 0, Volume: 0.5, Pitch: 1, Note: protocol.NoteC, Playmode: 1}
	if rec != want {
		t.Fatalf("resolved = %+v, want %+v", rec, want)
	}
	if rec.EffectivePitch() != 1 {
		t.Fatalf("default note C must not bend pitch, got %v", rec.EffectivePitch())
	}

	u = protocol.NewChannelUpdate()
	u.Note = protocol.NoteA
	rec, _, err = r.ResolveChannel(1, u)
	if err != nil {
		t.Fatalf("note update: %v", err)
	}
	if rec.EffectivePitch() != protocol.NoteA.Pitch() {
		t.Fatalf("pitch = %v, want %v", rec.EffectivePitch(), protocol.NoteA.Pitch())
	}

	u = protocol.NewChannelUpdate()
	u.Pitch = 2
	rec, _, err = r.ResolveChannel(1, u)
	if err != nil {
		t.Fatalf("pitch update: %v", err)
	}
	if got, want := rec.EffectivePitch(), 2*protocol.NoteA.Pitch(); got != want {
		t.Fatalf("combined pitch = %v, want %v", got, want)
	}
}

func TestCameraSingletonOverlay(t *testing.T) {
	r := New(DefaultCapacities())

	if r.Camera() != DefaultCamera() {
		t.Fatalf("fresh registry camera = %+v", r.Camera())
	}

	u := protocol.NewCameraUpdate()
	u.Size = 4
	cam := r.ResolveCamera(u)
	if cam.Size != 4 || cam.X != 13.5 || cam.Y != 7.5 || cam.Angle != 0 {
		t.Fatalf("camera overlay = %+v", cam)
	}

	u = protocol.NewCameraUpdate()
	u.X = 20
	cam = r.ResolveCamera(u)
	if cam.X != 20 || cam.Size != 4 {
		t.Fatalf("camera must keep earlier overlays: %+v", cam)
	}
}

func TestIdentityRange(t *testing.T) {
	r := New(Capacities{Sprites: 10, Texts: 5, Channels: 2})

	cases := []struct {
		name    string
		resolve func() error
		wantErr bool
	}{
		{"sprite_in_range", func() error { _, _, err := r.ResolveSprite(9, protocol.NewSpriteUpdate()); return err }, false},
		{"sprite_at_capacity", func() error { _, _, err := r.ResolveSprite(10, protocol.NewSpriteUpdate()); return err }, true},
		{"sprite_negative", func() error { _, _, err := r.ResolveSprite(-1, protocol.NewSpriteUpdate()); return err }, true},
		{"text_over", func() error { _, _, err := r.ResolveText(5, protocol.NewTextUpdate()); return err }, true},
		{"channel_over", func() error { _, _, err := r.ResolveChannel(2, protocol.NewChannelUpdate()); return err }, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.resolve()
			if c.wantErr {
				if !errors.Is(err, ErrIdentityRange) {
					t.Fatalf("err = %v, want ErrIdentityRange", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestStoreGrowth(t *testing.T) {
	r := New(DefaultCapacities())

	// Scattered identities must not require preallocation.
	for _, id := range []int{999, 0, 512} {
		if _, created, err := r.ResolveSprite(id, protocol.NewSpriteUpdate()); err != nil || !created {
			t.Fatalf("resolve %d: created=%v err=%v", id, created, err)
		}
	}
	if r.SpriteCount() != 3 {
		t.Fatalf("sprite count = %d, want 3", r.SpriteCount())
	}

	// Re-referencing does not grow the dense set.
	if _, created, _ := r.ResolveSprite(512, protocol.NewSpriteUpdate()); created {
		t.Fatalf("identity 512 created twice")
	}
	if r.SpriteCount() != 3 {
		t.Fatalf("sprite count after re-reference = %d", r.SpriteCount())
	}
}
