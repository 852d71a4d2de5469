package dndgate

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/stretchr/testify/assert"
)

func scheduleEntry(start, end string) config.DnDScheduleEntry {
	return config.DnDScheduleEntry{Start: start, End: end}
}

func TestScheduler_Run_NoEntriesReturnsImmediately(t *testing.T) {
	s := NewScheduler(New(false), nil, slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
}

func TestScheduler_Evaluate_AppliesScheduleOnce(t *testing.T) {
	gate := New(false)
	s := NewScheduler(gate, []config.DnDScheduleEntry{scheduleEntry("00:00", "23:59")}, slog.Default())
	s.nowFn = func() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) }

	s.evaluate()
	assert.True(t, gate.Enabled())
}

func TestScheduler_Evaluate_ManualOverrideWins(t *testing.T) {
	gate := New(false)
	gate.Disable() // manual off
	s := NewScheduler(gate, []config.DnDScheduleEntry{scheduleEntry("00:00", "23:59")}, slog.Default())
	s.nowFn = func() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) }

	s.evaluate()
	assert.False(t, gate.Enabled())
}
