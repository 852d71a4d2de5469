package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

// Default values for the CLI-side output configuration.
const (
	DefaultSince     = "48h"
	DefaultSortField = "timestamp"
	DefaultSortOrder = "desc"
	DefaultIconSize  = 32
	DefaultPlainTmpl = "{{.Timestamp | formatTime}} {{.AppName}}: {{.Summary}}\n{{.Body}}"
	DefaultDmenuTmpl = "{{.AppName}} | {{.Summary}} - {{.BodyTruncated 50}} | {{.RelativeTime}}"
)

// CLIConfig holds output formatting and display preferences shared by
// swaynotictl and swaynoti-history. It is distinct from Snapshot: the
// daemon never reads this file, and this file never configures the
// lifecycle engine.
type CLIConfig struct {
	Filter    FilterConfig    `toml:"filter"`
	Sort      SortConfig      `toml:"sort"`
	Templates TemplatesConfig `toml:"templates"`
	TUI       TUIConfig       `toml:"tui"`
}

// FilterConfig holds default history-query filtering options.
type FilterConfig struct {
	Since string `toml:"since"` // 0 = all time
	Limit int    `toml:"limit"` // 0 = unlimited
}

// SortConfig holds default sort options for history listings.
type SortConfig struct {
	Field string `toml:"field"` // timestamp, app, urgency
	Order string `toml:"order"` // asc, desc
}

// TemplatesConfig holds Go text/template strings for CLI output.
type TemplatesConfig struct {
	Plain  string            `toml:"plain"`
	Dmenu  string            `toml:"dmenu"`
	Custom map[string]string `toml:"custom"`
}

// TUIConfig holds swaynoti-history's display preferences.
type TUIConfig struct {
	ShowIcons bool `toml:"show_icons"`
	IconSize  int  `toml:"icon_size"`
}

// DefaultCLIConfig returns a CLIConfig populated with defaults.
func DefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Filter: FilterConfig{Since: DefaultSince, Limit: 0},
		Sort:   SortConfig{Field: DefaultSortField, Order: DefaultSortOrder},
		Templates: TemplatesConfig{
			Plain:  DefaultPlainTmpl,
			Dmenu:  DefaultDmenuTmpl,
			Custom: make(map[string]string),
		},
		TUI: TUIConfig{ShowIcons: true, IconSize: DefaultIconSize},
	}
}

// CLIConfigPath returns $XDG_CONFIG_HOME/swaynoti/cli.toml.
func CLIConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "swaynoti", "cli.toml")
}

// LoadCLIConfig loads the CLI output config, falling back to defaults if
// the file doesn't exist.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = CLIConfigPath()
	}

	cfg := DefaultCLIConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the CLI config to path (or the default path if empty).
func (c *CLIConfig) Save(path string) error {
	if path == "" {
		path = CLIConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetTemplate resolves a named template: custom templates win, then the
// two built-ins, else empty string.
func (c *CLIConfig) GetTemplate(name string) string {
	if tmpl, ok := c.Templates.Custom[name]; ok {
		return tmpl
	}
	switch name {
	case "plain":
		return c.Templates.Plain
	case "dmenu":
		return c.Templates.Dmenu
	default:
		return ""
	}
}

// TemplateData is the value a CLI output template is executed against. It
// deliberately uses plain fields rather than a model type, so this package
// doesn't need to import internal/model: callers convert whatever they have
// (a notification summary, a history entry) into a TemplateData.
type TemplateData struct {
	ID        uint32
	AppName   string
	Summary   string
	Body      string
	Urgency   string
	Timestamp time.Time
}

// BodyTruncated returns Body cut to at most n runes, for templates that
// want a fixed-width single-line rendering (e.g. dmenu).
func (d TemplateData) BodyTruncated(n int) string {
	r := []rune(d.Body)
	if len(r) <= n {
		return d.Body
	}
	return string(r[:n])
}

// RelativeTime renders Timestamp as a human string like "3 minutes ago".
func (d TemplateData) RelativeTime() string {
	return humanize.Time(d.Timestamp)
}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

// Render executes the named template (see GetTemplate) against data. An
// empty/unknown template name falls back to DefaultPlainTmpl.
func (c *CLIConfig) Render(name string, data TemplateData) (string, error) {
	tmplText := c.GetTemplate(name)
	if tmplText == "" {
		tmplText = DefaultPlainTmpl
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("parse %q template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %q template: %w", name, err)
	}
	return buf.String(), nil
}
