package script

import (
	"encoding/json"
	"fmt"

	"github.com/d5/tengo/v2"
	"go.uber.org/zap"

	"github.com/skiffgames/skiff/protocol"
)

// builtins returns the engine map handed to the script. Every call records a
// change into the pending batch; nothing touches the mailbox until the tick's
// flush.
func (e *Engine) builtins() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["image"] = &tengo.UserFunction{Name: "image", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, name, err := idAndName(args)
		if err != nil {
			return nil, err
		}
		e.pending.ImageChanges = append(e.pending.ImageChanges, protocol.ImageChange{ImageID: id, Filename: name})
		return tengo.UndefinedValue, nil
	}}

	values["sound"] = &tengo.UserFunction{Name: "sound", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, name, err := idAndName(args)
		if err != nil {
			return nil, err
		}
		e.pending.SoundChanges = append(e.pending.SoundChanges, protocol.SoundChange{SoundID: id, Filename: name})
		return tengo.UndefinedValue, nil
	}}

	values["sprite"] = &tengo.UserFunction{Name: "sprite", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, fields, err := idAndFields(args)
		if err != nil {
			return nil, err
		}
		u := protocol.NewSpriteUpdate()
		if err := decodeFields(fields, &u); err != nil {
			return nil, err
		}
		u.SpriteID = id
		e.pending.SpriteChanges = append(e.pending.SpriteChanges, u)
		return tengo.UndefinedValue, nil
	}}

	values["text"] = &tengo.UserFunction{Name: "text", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, fields, err := idAndFields(args)
		if err != nil {
			return nil, err
		}
		u := protocol.NewTextUpdate()
		if err := decodeFields(fields, &u); err != nil {
			return nil, err
		}
		u.TextID = id
		e.pending.TextChanges = append(e.pending.TextChanges, u)
		return tengo.UndefinedValue, nil
	}}

	values["channel"] = &tengo.UserFunction{Name: "channel", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, fields, err := idAndFields(args)
		if err != nil {
			return nil, err
		}
		u := protocol.NewChannelUpdate()
		if err := decodeFields(fields, &u); err != nil {
			return nil, err
		}
		u.ChannelID = id
		e.pending.ChannelChanges = append(e.pending.ChannelChanges, u)
		return tengo.UndefinedValue, nil
	}}

	values["camera"] = &tengo.UserFunction{Name: "camera", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		u := protocol.NewCameraUpdate()
		if err := decodeFields(args[0], &u); err != nil {
			return nil, err
		}
		if e.pending.Camera != nil {
			// Within one pending batch the camera record is cumulative.
			u = mergeCamera(*e.pending.Camera, u)
		}
		e.pending.Camera = &u
		return tengo.UndefinedValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		e.log.Info(objectString(args[0]), zap.String("stream", "script"))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func idAndName(args []tengo.Object) (int, string, error) {
	if len(args) != 2 {
		return 0, "", tengo.ErrWrongNumArguments
	}
	id, ok := tengo.ToInt(args[0])
	if !ok {
		return 0, "", fmt.Errorf("identity must be an int, got %s", args[0].TypeName())
	}
	name, ok := tengo.ToString(args[1])
	if !ok {
		return 0, "", fmt.Errorf("filename must be a string, got %s", args[1].TypeName())
	}
	return id, name, nil
}

func idAndFields(args []tengo.Object) (int, tengo.Object, error) {
	if len(args) != 2 {
		return 0, nil, tengo.ErrWrongNumArguments
	}
	id, ok := tengo.ToInt(args[0])
	if !ok {
		return 0, nil, fmt.Errorf("identity must be an int, got %s", args[0].TypeName())
	}
	return id, args[1], nil
}

// decodeFields overlays a script-side field map onto a sentinel-prefilled
// update record by round-tripping through the wire encoding, so the script
// and an external producer get byte-for-byte identical field handling.
func decodeFields(fields tengo.Object, into any) error {
	raw := tengo.ToInterface(fields)
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("fields must be a map, got %s", fields.TypeName())
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("bad field value: %w", err)
	}
	return nil
}

func mergeCamera(base, over protocol.CameraUpdate) protocol.CameraUpdate {
	if protocol.FSet(over.X) {
		base.X = over.X
	}
	if protocol.FSet(over.Y) {
		base.Y = over.Y
	}
	if protocol.FSet(over.Size) {
		base.Size = over.Size
	}
	if protocol.FSet(over.Angle) {
		base.Angle = over.Angle
	}
	return base
}

func objectString(o tengo.Object) string {
	if s, ok := tengo.ToString(o); ok {
		return s
	}
	return o.String()
}
