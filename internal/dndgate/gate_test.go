package dndgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_ManualOutlastsSchedule(t *testing.T) {
	g := New(false)
	g.Enable()
	assert.True(t, g.Enabled())

	// A schedule tick trying to turn DnD off must not override the manual enable.
	g.DisableScheduled()
	assert.True(t, g.Enabled())
}

func TestGate_ScheduleControlsWhenNoManualOverride(t *testing.T) {
	g := New(false)
	g.EnableScheduled()
	assert.True(t, g.Enabled())

	g.DisableScheduled()
	assert.False(t, g.Enabled())
}

func TestGate_ClearManualLetsScheduleResume(t *testing.T) {
	g := New(false)
	g.Enable()
	g.ClearManual()
	g.DisableScheduled()
	assert.False(t, g.Enabled())
}

func TestGate_Toggle(t *testing.T) {
	g := New(false)
	assert.True(t, g.Toggle())
	assert.False(t, g.Toggle())
}

func TestGate_ShouldSuppress(t *testing.T) {
	g := New(true)
	assert.True(t, g.ShouldSuppress(1, true))
	assert.False(t, g.ShouldSuppress(2, true), "critical should bypass when criticalWakes is set")
	assert.True(t, g.ShouldSuppress(2, false), "critical should still be suppressed when criticalWakes is off")

	g.Disable()
	assert.False(t, g.ShouldSuppress(0, true))
}

func TestEntryActive_SameDayWindow(t *testing.T) {
	active, err := entryActive(scheduleEntry("22:00", "23:00"), "22:30", "mon")
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = entryActive(scheduleEntry("22:00", "23:00"), "23:30", "mon")
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestEntryActive_OvernightWindow(t *testing.T) {
	active, err := entryActive(scheduleEntry("22:00", "07:00"), "23:30", "mon")
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = entryActive(scheduleEntry("22:00", "07:00"), "03:00", "mon")
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = entryActive(scheduleEntry("22:00", "07:00"), "12:00", "mon")
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestEntryActive_EmptyDaysMeansEveryDay(t *testing.T) {
	e := scheduleEntry("00:00", "23:59")
	active, err := entryActive(e, "12:00", "sun")
	assert.NoError(t, err)
	assert.True(t, active)
}

func TestEntryActive_RestrictedDays(t *testing.T) {
	e := scheduleEntry("00:00", "23:59")
	e.Days = []string{"mon", "tue"}
	active, err := entryActive(e, "12:00", "wed")
	assert.NoError(t, err)
	assert.False(t, active)

	active, err = entryActive(e, "12:00", "mon")
	assert.NoError(t, err)
	assert.True(t, active)
}
