package dndgate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/swaynoti/internal/config"
)

var weekdayAbbrev = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func entryActive(entry config.DnDScheduleEntry, nowHHMM, weekday string) (bool, error) {
	if !isScheduledDay(entry.Days, weekday) {
		return false, nil
	}
	now, err := time.Parse("15:04", nowHHMM)
	if err != nil {
		return false, fmt.Errorf("parse current time: %w", err)
	}
	start, err := time.Parse("15:04", entry.Start)
	if err != nil {
		return false, fmt.Errorf("parse start time %q: %w", entry.Start, err)
	}
	end, err := time.Parse("15:04", entry.End)
	if err != nil {
		return false, fmt.Errorf("parse end time %q: %w", entry.End, err)
	}

	if start.Before(end) {
		// same-day window
		return !now.Before(start) && now.Before(end), nil
	}
	// overnight window (End <= Start): active from start through midnight,
	// and from midnight through end; End == Start covers the whole day
	return !now.Before(start) || now.Before(end), nil
}

func isScheduledDay(days []string, weekday string) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if strings.EqualFold(d, weekday) {
			return true
		}
	}
	return false
}

// Scheduler ticks once a minute, evaluating the configured DnD schedule
// against the gate. A manual override always takes precedence; the
// scheduler's EnableScheduled/DisableScheduled calls are no-ops while one
// is in effect.
type Scheduler struct {
	gate     *Gate
	entries  []config.DnDScheduleEntry
	logger   *slog.Logger
	tick     time.Duration
	nowFn    func() time.Time
}

// NewScheduler builds a Scheduler for the given schedule entries. If
// entries is empty, Run returns immediately without starting a ticker.
func NewScheduler(gate *Gate, entries []config.DnDScheduleEntry, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gate:    gate,
		entries: entries,
		logger:  logger,
		tick:    time.Minute,
		nowFn:   time.Now,
	}
}

// Run evaluates the schedule once and then every tick interval until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.entries) == 0 {
		return nil
	}

	s.evaluate()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.evaluate()
		}
	}
}

func (s *Scheduler) evaluate() {
	now := s.nowFn()
	nowHHMM := now.Format("15:04")
	weekday := weekdayAbbrev[int(now.Weekday())]

	active, err := ScheduleActive(s.entries, nowHHMM, weekday)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("dnd schedule evaluation failed", "error", err)
		}
		return
	}

	if active {
		s.gate.EnableScheduled()
	} else {
		s.gate.DisableScheduled()
	}
}
