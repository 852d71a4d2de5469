// Package dndgate implements the Do Not Disturb gate: a manual override
// that always wins, plus an optional schedule that toggles the enabled
// state only while no manual override is in effect.
package dndgate

import (
	"sync/atomic"

	"github.com/jmylchreest/swaynoti/internal/config"
)

// Gate tracks whether notifications should currently be suppressed.
// Reads never block; both enabled and manual are independent atomics so a
// scheduler tick and a user toggle can race without a lock.
type Gate struct {
	enabled atomic.Bool
	manual  atomic.Bool
}

// New returns a Gate seeded with the config's initial enabled state.
func New(initialEnabled bool) *Gate {
	g := &Gate{}
	g.enabled.Store(initialEnabled)
	return g
}

// Enabled reports whether Do Not Disturb is currently active.
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// Enable turns DnD on as a manual, user-initiated action. A manual action
// outlasts any subsequent schedule tick until the user (or another manual
// action) changes it again.
func (g *Gate) Enable() {
	g.enabled.Store(true)
	g.manual.Store(true)
}

// Disable turns DnD off as a manual action.
func (g *Gate) Disable() {
	g.enabled.Store(false)
	g.manual.Store(true)
}

// Toggle flips the current state as a manual action and returns the new
// state.
func (g *Gate) Toggle() bool {
	if g.enabled.Load() {
		g.Disable()
	} else {
		g.Enable()
	}
	return g.enabled.Load()
}

// EnableScheduled turns DnD on from the schedule, but only if no manual
// override is currently in effect.
func (g *Gate) EnableScheduled() {
	if !g.manual.Load() {
		g.enabled.Store(true)
	}
}

// DisableScheduled turns DnD off from the schedule, but only if no manual
// override is currently in effect.
func (g *Gate) DisableScheduled() {
	if !g.manual.Load() {
		g.enabled.Store(false)
	}
}

// ClearManual drops the manual override, letting the schedule resume
// control on its next tick. The daemon itself never calls it, so a manual
// toggle stays in effect until the next manual action or a restart.
func (g *Gate) ClearManual() {
	g.manual.Store(false)
}

// ShouldSuppress reports whether a notification of the given urgency
// should be suppressed right now: DnD is enabled, and either the urgency
// isn't critical or the config doesn't let critical bypass the gate.
func (g *Gate) ShouldSuppress(urgency int, criticalWakes bool) bool {
	if !g.Enabled() {
		return false
	}
	if urgency == 2 && criticalWakes {
		return false
	}
	return true
}

// ScheduleActive reports whether now falls inside any of the configured
// schedule windows, per entry semantics: an empty day set means every day,
// and End <= Start means the window crosses midnight.
func ScheduleActive(entries []config.DnDScheduleEntry, nowHHMM string, weekday string) (bool, error) {
	for _, entry := range entries {
		active, err := entryActive(entry, nowHHMM, weekday)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}
