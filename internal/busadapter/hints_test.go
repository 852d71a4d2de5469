package busadapter

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseHints_Defaults(t *testing.T) {
	h := parseHints(map[string]dbus.Variant{})
	assert.Equal(t, model.UrgencyNormal, h.Urgency)
	assert.Equal(t, -1, h.Progress)
}

func TestParseHints_Urgency(t *testing.T) {
	h := parseHints(map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))})
	assert.Equal(t, model.UrgencyCritical, h.Urgency)
}

func TestParseHints_StringAndBoolHints(t *testing.T) {
	h := parseHints(map[string]dbus.Variant{
		"category":       dbus.MakeVariant("email.arrived"),
		"desktop-entry":  dbus.MakeVariant("firefox"),
		"resident":       dbus.MakeVariant(true),
		"suppress-sound": dbus.MakeVariant(true),
	})
	assert.Equal(t, "email.arrived", h.Category)
	assert.Equal(t, "firefox", h.DesktopEntry)
	assert.True(t, h.Resident)
	assert.True(t, h.SuppressSound)
}

func TestParseHints_Position(t *testing.T) {
	h := parseHints(map[string]dbus.Variant{
		"x": dbus.MakeVariant(int32(100)),
		"y": dbus.MakeVariant(int32(200)),
	})
	assert.True(t, h.HasPosition)
	assert.Equal(t, int32(100), h.X)
	assert.Equal(t, int32(200), h.Y)
}

func TestParseHints_ImageData(t *testing.T) {
	raw := rawImageData{Width: 4, Height: 4, Rowstride: 16, HasAlpha: true, BitsPerSample: 8, Channels: 4, Data: []byte{1, 2, 3}}
	h := parseHints(map[string]dbus.Variant{"image-data": dbus.MakeVariant(raw)})
	if assert.NotNil(t, h.ImageData) {
		assert.Equal(t, int32(4), h.ImageData.Width)
		assert.True(t, h.ImageData.HasAlpha)
		assert.Equal(t, []byte{1, 2, 3}, h.ImageData.Data)
	}
}

func TestParseHints_Progress(t *testing.T) {
	h := parseHints(map[string]dbus.Variant{"value": dbus.MakeVariant(int32(42))})
	assert.Equal(t, 42, h.Progress)
}
