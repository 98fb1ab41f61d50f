// Package schedule computes the next absolute instant a recurring
// daily/weekly/monthly schedule fires. It is domain-agnostic and shared by
// the scheduled-report cron and reminder-style recurrence.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/keyurgolani/BabyNest-sub008/datemath"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"

	// Applied when the configured "HH:MM" is malformed or missing. Input
	// validation lives at the DTO layer; this package defaults rather than
	// rejects.
	DefaultHour   = 9
	DefaultMinute = 0

	// 0=Sunday convention; default fire day for weekly schedules
	DefaultDayOfWeek = 1

	DefaultDayOfMonth = 1
)

// Config describes a recurring schedule. DayOfWeek is only meaningful for
// WEEKLY, DayOfMonth only for MONTHLY; both are optional.
type Config struct {
	Frequency  Frequency `json:"frequency"`
	Time       string    `json:"time"`
	DayOfWeek  *int      `json:"dayOfWeek,omitempty"`
	DayOfMonth *int      `json:"dayOfMonth,omitempty"`
}

// NextSendAt returns the next instant the schedule fires strictly after
// "from". Monthly schedules clamp the day-of-month to the last valid day of
// the target month (the 31st in a 30-day month fires on the 30th).
func NextSendAt(cfg Config, from time.Time) time.Time {
	hour, minute := ParseTimeOfDay(cfg.Time)
	loc := from.Location()

	switch cfg.Frequency {
	case FrequencyWeekly:
		target := DefaultDayOfWeek
		if cfg.DayOfWeek != nil {
			target = *cfg.DayOfWeek
		}

		delta := target - int(from.Weekday())
		candidate := time.Date(from.Year(), from.Month(), from.Day()+delta, hour, minute, 0, 0, loc)

		if delta < 0 || !candidate.After(from) {
			candidate = candidate.AddDate(0, 0, 7)
		}

		return candidate
	case FrequencyMonthly:
		day := DefaultDayOfMonth
		if cfg.DayOfMonth != nil {
			day = *cfg.DayOfMonth
		}

		candidate := monthlyCandidate(from.Year(), from.Month(), day, hour, minute, loc)

		if !candidate.After(from) {
			candidate = monthlyCandidate(from.Year(), from.Month()+1, day, hour, minute, loc)
		}

		return candidate
	default:
		// DAILY (and anything unrecognized, which the DTO layer rejects)
		candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, loc)

		if !candidate.After(from) {
			candidate = candidate.AddDate(0, 0, 1)
		}

		return candidate
	}
}

// ReportPeriod returns the data window a generated report covers: endDate is
// now, startDate is one day/week/month earlier depending on frequency.
func ReportPeriod(freq Frequency, now time.Time) (start, end time.Time) {
	switch freq {
	case FrequencyWeekly:
		start = now.AddDate(0, 0, -7)
	case FrequencyMonthly:
		start = now.AddDate(0, -1, 0)
	default:
		start = now.AddDate(0, 0, -1)
	}

	return start, now
}

// ParseTimeOfDay parses an "HH:MM" string, defaulting to 09:00 when the value
// is malformed.
func ParseTimeOfDay(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return DefaultHour, DefaultMinute
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return DefaultHour, DefaultMinute
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return DefaultHour, DefaultMinute
	}

	return h, m
}

func monthlyCandidate(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	// Normalize a month overflow (December + 1) before clamping the day
	norm := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	day = datemath.ClampDayOfMonth(norm.Year(), norm.Month(), day)

	return time.Date(norm.Year(), norm.Month(), day, hour, minute, 0, 0, loc)
}
