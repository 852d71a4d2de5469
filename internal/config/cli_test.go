package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIConfig_GetTemplate_CustomWinsOverBuiltin(t *testing.T) {
	cfg := DefaultCLIConfig()
	cfg.Templates.Custom = map[string]string{"plain": "custom-{{.AppName}}"}

	assert.Equal(t, "custom-{{.AppName}}", cfg.GetTemplate("plain"))
	assert.Equal(t, DefaultDmenuTmpl, cfg.GetTemplate("dmenu"))
	assert.Equal(t, "", cfg.GetTemplate("unknown"))
}

func TestCLIConfig_Render_Dmenu(t *testing.T) {
	cfg := DefaultCLIConfig()
	ts := time.Now().Add(-2 * time.Minute)

	out, err := cfg.Render("dmenu", TemplateData{
		AppName:   "Spotify",
		Summary:   "Now playing",
		Body:      "Some Song by Some Artist, from an album with a very long name",
		Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Spotify | Now playing")
	assert.Contains(t, out, "ago")
}

func TestCLIConfig_Render_CustomTemplate(t *testing.T) {
	cfg := DefaultCLIConfig()
	cfg.Templates.Custom["oneline"] = "{{.ID}}: {{.AppName}} - {{.Summary}}"

	out, err := cfg.Render("oneline", TemplateData{ID: 7, AppName: "Firefox", Summary: "Download complete"})
	require.NoError(t, err)
	assert.Equal(t, "7: Firefox - Download complete", out)
}

func TestCLIConfig_Render_UnknownNameFallsBackToPlain(t *testing.T) {
	cfg := DefaultCLIConfig()
	out, err := cfg.Render("", TemplateData{AppName: "Firefox", Summary: "Download complete"})
	require.NoError(t, err)
	assert.Contains(t, out, "Firefox: Download complete")
}

func TestTemplateData_BodyTruncated(t *testing.T) {
	d := TemplateData{Body: "hello world"}
	assert.Equal(t, "hello", d.BodyTruncated(5))
	assert.Equal(t, "hello world", d.BodyTruncated(50))
}
