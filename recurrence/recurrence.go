// Package recurrence computes reminder next-trigger instants. The engine is a
// pure function of its inputs - it owns no timer and no state; callers supply
// the rule, the current instant and (when relevant) the timestamp of the last
// matching tracking entry.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/keyurgolani/BabyNest-sub008/schedule"
)

const (
	// Interval bounds, in minutes
	MinIntervalMinutes = 15
	MaxIntervalMinutes = 1440
)

// Rule is a tagged union: exactly one variant is active per reminder. The
// sealed interface makes the illegal combinations of the original flat record
// (intervalMinutes + scheduledTimes both set, etc.) unrepresentable.
type Rule interface {
	isRule()
}

// Interval fires a fixed number of minutes after the reminder's baseline
// (last fire time or last matching entry, whichever the caller supplies).
type Interval struct {
	Minutes int
}

// FixedSchedule fires at fixed times of day ("HH:MM"). Ascending order is
// expected but not enforced; ties break by slice order.
type FixedSchedule struct {
	Times []string
}

// BasedOnLastEntry fires a fixed offset after the most recent matching
// activity entry. Without a baseline entry no trigger can be computed.
type BasedOnLastEntry struct {
	AfterMinutes int
}

func (Interval) isRule()         {}
func (FixedSchedule) isRule()    {}
func (BasedOnLastEntry) isRule() {}

// Trigger is the ephemeral next-trigger result. MinutesUntil is negative when
// the trigger is overdue.
type Trigger struct {
	At           time.Time `json:"at"`
	MinutesUntil int       `json:"minutesUntil"`
	Countdown    string    `json:"countdown"`
}

// NextTrigger computes the next trigger instant for the rule, or nil when no
// upcoming trigger exists (nil rule, empty schedule, or a BasedOnLastEntry
// rule with no baseline). Callers must treat nil as "no upcoming reminder",
// not as an error.
func NextTrigger(rule Rule, now time.Time, lastEntryAt *time.Time) *Trigger {
	var at time.Time

	switch r := rule.(type) {
	case Interval:
		base := now
		if lastEntryAt != nil {
			base = *lastEntryAt
		}

		at = base.Add(time.Duration(r.Minutes) * time.Minute)
	case FixedSchedule:
		next, ok := nextScheduledTime(r.Times, now)
		if !ok {
			return nil
		}

		at = next
	case BasedOnLastEntry:
		if lastEntryAt == nil {
			return nil
		}

		at = lastEntryAt.Add(time.Duration(r.AfterMinutes) * time.Minute)
	default:
		return nil
	}

	return &Trigger{
		At:           at,
		MinutesUntil: int(at.Sub(now) / time.Minute),
		Countdown:    FormatCountdown(at, now),
	}
}

// nextScheduledTime picks the earliest time-of-day still ahead of now today;
// if every slot has passed, the earliest slot tomorrow.
func nextScheduledTime(times []string, now time.Time) (time.Time, bool) {
	if len(times) == 0 {
		return time.Time{}, false
	}

	var todayNext, tomorrowFirst time.Time

	for _, hhmm := range times {
		hour, minute := schedule.ParseTimeOfDay(hhmm)
		candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

		if candidate.After(now) && (todayNext.IsZero() || candidate.Before(todayNext)) {
			todayNext = candidate
		}

		if tomorrowFirst.IsZero() || candidate.Before(tomorrowFirst) {
			tomorrowFirst = candidate
		}
	}

	if !todayNext.IsZero() {
		return todayNext, true
	}

	return tomorrowFirst.AddDate(0, 0, 1), true
}

// FormatCountdown renders the time remaining until target as the largest two
// non-zero units among hours, minutes and seconds ("2h 15m", "45m 10s",
// "30s"). Targets at or before now render as "Now!". Callers re-render on a
// fixed interval; this function owns no timer.
func FormatCountdown(target, now time.Time) string {
	remaining := target.Sub(now)
	if remaining < time.Second {
		return "Now!"
	}

	hours := int(remaining / time.Hour)
	minutes := int(remaining/time.Minute) % 60
	seconds := int(remaining/time.Second) % 60

	parts := make([]string, 0, 2)

	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}

	if minutes > 0 && len(parts) < 2 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}

	if seconds > 0 && len(parts) < 2 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
