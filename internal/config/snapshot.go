// Package config loads and validates swaynotid's configuration, and defines
// the immutable Snapshot the core lifecycle engine consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings ("5s", "1m", "1h30m") or, for backwards compatibility, a bare
// integer taken as milliseconds. Zero means "never expire".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int { return int(time.Duration(d).Milliseconds()) }

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Snapshot is the immutable configuration the lifecycle coordinator consumes.
// It is produced outside the core (cmd/swaynotid loads and hot-reloads the
// TOML file) and handed in whole; the core never reads a config file itself.
type Snapshot struct {
	Timeouts TimeoutConfig  `toml:"timeouts"`
	Behavior BehaviorConfig `toml:"behavior"`
	DnD      DnDConfig      `toml:"dnd"`
	History  HistoryConfig  `toml:"history"`
	Socket   SocketConfig   `toml:"socket"`
	Audio    AudioConfig    `toml:"audio"`
	Display  DisplayConfig  `toml:"display"`
	Rules    []AppRule      `toml:"rule"`
}

// Position names a corner or edge-center anchor for the popup stack,
// expressed the way gtk4-layer-shell anchors a surface.
type Position string

// Supported popup anchor positions.
const (
	PositionTopRight     Position = "top-right"
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
)

// DisplayConfig controls the default popup presenter's window placement.
// Theming and CSS are out of scope (SPEC_FULL.md §4.9): only the geometry
// the layer-shell anchor needs lives here.
type DisplayConfig struct {
	Position  Position `toml:"position"`
	Width     int      `toml:"width"`
	MaxHeight int      `toml:"max_height"`
	Gap       int      `toml:"gap"`
	OffsetX   int      `toml:"offset_x"`
	OffsetY   int      `toml:"offset_y"`
}

// TimeoutConfig holds the server-default timeout per urgency level, used
// when a notification's expire_timeout is -1.
type TimeoutConfig struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"` // default 0: critical never expires
}

// BehaviorConfig holds lifecycle-engine-wide behavior toggles (spec.md §3's
// "general" section of the configuration snapshot).
type BehaviorConfig struct {
	MaxVisible    int    `toml:"max_visible"`
	SortOrder     string `toml:"sort_order"`              // "newest_first" | "oldest_first" | "urgency_descending"
	Markup        bool   `toml:"markup"`                  // passed through to the presenter, never interpreted by the core
	IdleThreshold int    `toml:"idle_threshold_seconds"`  // parsed and kept in the snapshot; nothing in the daemon reads it, so no idle detection happens
	PauseOnHover  bool   `toml:"pause_on_hover"`
	CriticalWakes bool   `toml:"critical_wakes"` // critical bypasses DnD
}

// Sort order names accepted by the "sort_order" config key.
const (
	SortOrderNewestFirst       = "newest_first"
	SortOrderOldestFirst       = "oldest_first"
	SortOrderUrgencyDescending = "urgency_descending"
)

// DnDConfig holds Do Not Disturb defaults and the optional schedule.
type DnDConfig struct {
	Enabled  bool               `toml:"enabled"` // initial manual state at startup
	Schedule []DnDScheduleEntry `toml:"schedule"`
}

// DnDScheduleEntry describes one scheduled DnD window. Days uses lowercase
// three-letter weekday abbreviations ("mon".."sun"); an empty set means
// every day.
type DnDScheduleEntry struct {
	Start string   `toml:"start"` // "HH:MM"
	End   string   `toml:"end"`   // "HH:MM"; End <= Start means the window crosses midnight
	Days  []string `toml:"days"`
}

// HistoryConfig controls the SQLite-backed history store's retention.
type HistoryConfig struct {
	Path       string `toml:"path"` // empty = XDG default
	MaxEntries int    `toml:"max_entries"`
}

// SocketConfig controls the control-socket listener.
type SocketConfig struct {
	Path string `toml:"path"` // empty = XDG runtime default
}

// AudioConfig controls the default sound-sink collaborator.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig maps urgency to a sound file path.
type SoundConfig struct {
	Low      string `toml:"low"`
	Normal   string `toml:"normal"`
	Critical string `toml:"critical"`
}

// AppRule is one ordered rule in the rule engine's table. The first rule
// whose criteria all match wins; unset criteria fields are not checked.
type AppRule struct {
	Name string `toml:"name"`

	MatchAppName  string `toml:"match_app_name"`
	MatchSummary  string `toml:"match_summary"`
	MatchBody     string `toml:"match_body"`
	MatchCategory string `toml:"match_category"`
	MatchUrgency  string `toml:"match_urgency"` // "low"|"normal"|"critical", case-insensitive

	SetTimeout  *int64 `toml:"set_timeout_ms"` // override expire_timeout, ms; nil = no override
	SetUrgency  string `toml:"set_urgency"`    // override urgency; empty = no override
	SkipHistory bool   `toml:"skip_history"`
	SkipSound   bool   `toml:"skip_sound"`
	SkipDisplay bool   `toml:"skip_display"`
}

// DefaultSnapshot returns the configuration used when no config file exists.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Timeouts: TimeoutConfig{
			Low:      Duration(5 * time.Second),
			Normal:   Duration(10 * time.Second),
			Critical: Duration(0),
		},
		Behavior: BehaviorConfig{
			MaxVisible:    5,
			SortOrder:     SortOrderNewestFirst,
			PauseOnHover:  true,
			CriticalWakes: true,
		},
		DnD: DnDConfig{Enabled: false},
		History: HistoryConfig{
			MaxEntries: 500,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
		},
		Display: DisplayConfig{
			Position:  PositionTopRight,
			Width:     360,
			MaxHeight: 120,
			Gap:       8,
			OffsetX:   16,
			OffsetY:   16,
		},
	}
}

// Path returns the daemon config file path: $XDG_CONFIG_HOME/swaynoti/swaynotid.toml.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "swaynoti", "swaynotid.toml"), nil
}

// Load reads and validates the daemon configuration from disk, returning
// defaults overlaid with whatever the file specifies. A missing file is not
// an error: it yields DefaultSnapshot().
func Load() (*Snapshot, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads a Snapshot from an explicit path, for callers (tests,
// the hot-reload watcher) that already know where the file lives.
func LoadFrom(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSnapshot(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	snap := DefaultSnapshot()
	if err := toml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return snap, nil
}

// Save writes the configuration to disk atomically via a temp file + rename.
func Save(snap *Snapshot, path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks structural invariants that parsing alone can't enforce.
func (s *Snapshot) Validate() error {
	if s.Behavior.MaxVisible < 1 || s.Behavior.MaxVisible > 50 {
		return fmt.Errorf("max_visible must be between 1 and 50, got %d", s.Behavior.MaxVisible)
	}
	if s.Audio.Volume < 0 || s.Audio.Volume > 100 {
		return fmt.Errorf("audio volume must be between 0 and 100, got %d", s.Audio.Volume)
	}
	if s.History.MaxEntries < 0 {
		return fmt.Errorf("history max_entries cannot be negative, got %d", s.History.MaxEntries)
	}
	switch s.Behavior.SortOrder {
	case "", SortOrderNewestFirst, SortOrderOldestFirst, SortOrderUrgencyDescending:
	default:
		return fmt.Errorf("invalid sort_order %q", s.Behavior.SortOrder)
	}
	for i, entry := range s.DnD.Schedule {
		if _, err := time.Parse("15:04", entry.Start); err != nil {
			return fmt.Errorf("dnd schedule[%d]: invalid start time %q: %w", i, entry.Start, err)
		}
		if _, err := time.Parse("15:04", entry.End); err != nil {
			return fmt.Errorf("dnd schedule[%d]: invalid end time %q: %w", i, entry.End, err)
		}
	}
	for i, rule := range s.Rules {
		if rule.MatchUrgency != "" {
			if _, ok := parseUrgencyName(rule.MatchUrgency); !ok {
				return fmt.Errorf("rule[%d] %q: invalid match_urgency %q", i, rule.Name, rule.MatchUrgency)
			}
		}
		if rule.SetUrgency != "" {
			if _, ok := parseUrgencyName(rule.SetUrgency); !ok {
				return fmt.Errorf("rule[%d] %q: invalid set_urgency %q", i, rule.Name, rule.SetUrgency)
			}
		}
	}
	return nil
}

func parseUrgencyName(s string) (int, bool) {
	switch strings.ToLower(s) {
	case "low":
		return 0, true
	case "normal":
		return 1, true
	case "critical":
		return 2, true
	default:
		return 0, false
	}
}

// GetTimeoutForUrgency returns the server-default timeout in milliseconds
// for the given urgency level, used when expire_timeout is -1.
func (s *Snapshot) GetTimeoutForUrgency(urgency int) int {
	switch urgency {
	case 0:
		return s.Timeouts.Low.Milliseconds()
	case 2:
		return s.Timeouts.Critical.Milliseconds()
	default:
		return s.Timeouts.Normal.Milliseconds()
	}
}

// GetSoundForUrgency returns the sound file path for the given urgency
// level, expanding a leading ~ to the user's home directory.
func (s *Snapshot) GetSoundForUrgency(urgency int) string {
	var path string
	switch urgency {
	case 0:
		path = s.Audio.Sounds.Low
	case 2:
		path = s.Audio.Sounds.Critical
	default:
		path = s.Audio.Sounds.Normal
	}
	return expandPath(path)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
