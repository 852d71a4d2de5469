package busadapter

import (
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/swaynoti/internal/model"
)

// rawImageData mirrors the (iiibiiay) image-data/image_data/icon_data hint
// structure so godbus can Store() directly into it.
type rawImageData struct {
	Width         int32
	Height        int32
	Rowstride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// parseHints converts the raw D-Bus hint dictionary into model.Hints,
// defaulting urgency to normal and progress to "absent" (-1) the way the
// freedesktop spec requires for callers that omit them.
func parseHints(raw map[string]dbus.Variant) model.Hints {
	h := model.Hints{
		Urgency:  model.UrgencyNormal,
		Progress: -1,
	}

	if v, ok := raw["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			h.Urgency = int(b)
		}
	}
	if s, ok := stringHint(raw, "category"); ok {
		h.Category = s
	}
	if s, ok := stringHint(raw, "desktop-entry"); ok {
		h.DesktopEntry = s
	}
	if s, ok := stringHint(raw, "image-path"); !ok {
		s, ok = stringHint(raw, "image_path")
		if ok {
			h.ImagePath = s
		}
	} else {
		h.ImagePath = s
	}
	if img, ok := imageDataHint(raw, "image-data"); ok {
		h.ImageData = img
	} else if img, ok := imageDataHint(raw, "image_data"); ok {
		h.ImageData = img
	} else if img, ok := imageDataHint(raw, "icon_data"); ok {
		h.ImageData = img
	}
	if s, ok := stringHint(raw, "sound-file"); ok {
		h.SoundFile = s
	}
	if s, ok := stringHint(raw, "sound-name"); ok {
		h.SoundName = s
	}
	if b, ok := boolHint(raw, "suppress-sound"); ok {
		h.SuppressSound = b
	}
	if b, ok := boolHint(raw, "transient"); ok {
		h.Transient = b
	}
	if b, ok := boolHint(raw, "action-icons"); ok {
		h.ActionIcons = b
	}
	if b, ok := boolHint(raw, "resident"); ok {
		h.Resident = b
	}
	if b, ok := boolHint(raw, "inline-reply"); ok {
		h.InlineReply = b
	}
	if i, ok := int32Hint(raw, "x"); ok {
		h.X = i
		h.HasPosition = true
	}
	if i, ok := int32Hint(raw, "y"); ok {
		h.Y = i
		h.HasPosition = true
	}
	if i, ok := int32Hint(raw, "value"); ok {
		h.Progress = int(i)
	}
	return h
}

func stringHint(raw map[string]dbus.Variant, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.Value().(string)
	return s, ok
}

func boolHint(raw map[string]dbus.Variant, key string) (bool, bool) {
	v, ok := raw[key]
	if !ok {
		return false, false
	}
	b, ok := v.Value().(bool)
	return b, ok
}

func int32Hint(raw map[string]dbus.Variant, key string) (int32, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	switch val := v.Value().(type) {
	case int32:
		return val, true
	case uint32:
		return int32(val), true
	case byte:
		return int32(val), true
	case int:
		return int32(val), true
	default:
		return 0, false
	}
}

func imageDataHint(raw map[string]dbus.Variant, key string) (*model.ImageData, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	var decoded rawImageData
	if err := v.Store(&decoded); err != nil {
		return nil, false
	}
	return &model.ImageData{
		Width:         decoded.Width,
		Height:        decoded.Height,
		Rowstride:     decoded.Rowstride,
		HasAlpha:      decoded.HasAlpha,
		BitsPerSample: decoded.BitsPerSample,
		Channels:      decoded.Channels,
		Data:          decoded.Data,
	}, true
}
