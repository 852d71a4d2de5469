// Package model defines the core data structures shared across swaynotid's
// lifecycle engine: the wire-level notification, its hints, and the
// projection persisted to the history store.
package model

import (
	"errors"
	"strings"
	"time"
)

// Urgency levels, matching the freedesktop notification spec's byte encoding.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// UrgencyNames maps urgency levels to their lowercase spec names.
var UrgencyNames = map[int]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// ParseUrgency parses a case-insensitive urgency name or numeric string.
func ParseUrgency(s string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "0":
		return UrgencyLow, true
	case "normal", "1":
		return UrgencyNormal, true
	case "critical", "2":
		return UrgencyCritical, true
	default:
		return 0, false
	}
}

// Action is a single (key, label) notification action.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// IsDefault reports whether this is the primary click action.
func (a Action) IsDefault() bool { return a.Key == "default" }

// IsInlineReply reports whether this action signals inline-reply capability.
func (a Action) IsInlineReply() bool { return a.Key == "inline-reply" }

// ParseActions converts the flat D-Bus action array (alternating key, label)
// into ordered pairs. A trailing unpaired element is discarded.
func ParseActions(flat []string) []Action {
	actions := make([]Action, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		actions = append(actions, Action{Key: flat[i], Label: flat[i+1]})
	}
	return actions
}

// ImageData is the decoded form of the image-data/image_data/icon_data hint
// structure (iiibiiay): width, height, rowstride, has_alpha, bits_per_sample,
// channels, pixel bytes.
type ImageData struct {
	Width         int32
	Height        int32
	Rowstride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// Hints holds the structured notification hint overrides defined by the
// freedesktop spec's hint dictionary.
type Hints struct {
	Urgency       int // default UrgencyNormal
	Category      string
	DesktopEntry  string
	ImageData     *ImageData
	ImagePath     string
	SoundFile     string
	SoundName     string
	SuppressSound bool
	Transient     bool
	X, Y          int32
	HasPosition   bool
	ActionIcons   bool
	Progress      int // -1 = absent, else clamped 0-100
	Resident      bool
	InlineReply   bool
}

// ClampedProgress returns Progress clamped to [0, 100] for display, or -1 if
// no progress hint was supplied.
func (h Hints) ClampedProgress() int {
	if h.Progress < 0 {
		return -1
	}
	if h.Progress > 100 {
		return 100
	}
	return h.Progress
}

// Notification is the central entity: a single notification as tracked by
// the lifecycle coordinator.
type Notification struct {
	ID         uint32
	AppName    string
	AppIcon    string
	Summary    string
	Body       string
	Actions    []Action
	Hints      Hints
	ReplacesID uint32

	// ExpireTimeout is the raw wire value: -1 server default, 0 never, >0 ms.
	ExpireTimeout int32

	CreatedAt time.Time
	ExpiresAt time.Time // zero value means "does not expire"
	IsHovered bool

	// ResolvedTimeout is the effective timeout duration computed at
	// registration (explicit, or the urgency-dependent server default). It
	// is reused to recompute ExpiresAt from the unhover instant, since the
	// original resolution isn't revisited on reload (spec.md §9).
	ResolvedTimeout time.Duration

	// expiryEpoch is a per-object generation counter bumped by NextEpoch.
	// The coordinator does not use it for stale-timer detection: it keeps
	// its own per-id epoch map, which outlives a replacement object.
	expiryEpoch uint64
}

// HasExpiry reports whether ExpiresAt is set.
func (n *Notification) HasExpiry() bool { return !n.ExpiresAt.IsZero() }

// Epoch returns the notification's current expiry generation.
func (n *Notification) Epoch() uint64 { return n.expiryEpoch }

// NextEpoch bumps and returns the expiry generation, invalidating any timer
// ticks scheduled against the previous value.
func (n *Notification) NextEpoch() uint64 {
	n.expiryEpoch++
	return n.expiryEpoch
}

// ActionKeys returns just the ordered action keys, used for the JSON
// encoding persisted to history (HistoryEntry.Actions).
func (n *Notification) ActionKeys() []string {
	keys := make([]string, len(n.Actions))
	for i, a := range n.Actions {
		keys[i] = a.Key
	}
	return keys
}

// HasAction reports whether key names one of the notification's actions.
func (n *Notification) HasAction(key string) bool {
	for _, a := range n.Actions {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy suitable for handing to readers outside the
// coordinator goroutine (e.g. VisibleQuery replies, presenter events).
func (n *Notification) Clone() *Notification {
	clone := *n
	clone.Actions = append([]Action(nil), n.Actions...)
	if n.Hints.ImageData != nil {
		img := *n.Hints.ImageData
		img.Data = append([]byte(nil), n.Hints.ImageData.Data...)
		clone.Hints.ImageData = &img
	}
	return &clone
}

// Errors surfaced by HistoryEntry construction.
var (
	ErrEmptyAppName = errors.New("app_name cannot be empty")
)

// HistoryEntry is the durable projection of a Notification captured at
// registration time, plus the two mutable booleans the history store tracks.
type HistoryEntry struct {
	SurrogateID    int64 // DB primary key, 0 until persisted
	NotificationID uint32
	AppName        string
	Summary        string
	Body           string
	Icon           string
	Urgency        string // "low" | "normal" | "critical"
	Timestamp      time.Time
	Actions        []string // action keys only, JSON-encoded in storage
	Dismissed      bool
	Expired        bool
}

// NewHistoryEntry projects a Notification into a HistoryEntry at
// registration time.
func NewHistoryEntry(n *Notification) (HistoryEntry, error) {
	if n.AppName == "" {
		return HistoryEntry{}, ErrEmptyAppName
	}
	return HistoryEntry{
		NotificationID: n.ID,
		AppName:        n.AppName,
		Summary:        n.Summary,
		Body:           n.Body,
		Icon:           n.AppIcon,
		Urgency:        UrgencyNames[n.Hints.Urgency],
		Timestamp:      n.CreatedAt,
		Actions:        n.ActionKeys(),
	}, nil
}
