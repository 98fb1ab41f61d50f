// Package datemath contains the calendar arithmetic shared by the age,
// schedule and growth packages. All functions are pure and operate on the
// calendar date portion of their inputs - time-of-day never affects a day or
// month count.
package datemath

import "time"

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// utcMidnight rebuilds t's calendar date at midnight UTC. Day counts must not
// depend on the input's zone: subtracting two local midnights across a DST
// transition yields a 23h or 25h "day" and truncated division miscounts.
func utcMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days between a and b. Only
// the date portion of each input matters; the zone is discarded. Returns 0
// when a's date is after b's - callers that care about future dates must
// pre-guard (age.Calculate does).
func DaysBetween(a, b time.Time) int {
	ua := utcMidnight(a)
	ub := utcMidnight(b)

	if ua.After(ub) {
		return 0
	}

	return int(ub.Sub(ua) / (24 * time.Hour))
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayOfMonth clamps day to the last valid day of the given month. A
// request for the 31st in a 30-day month yields the 30th; it never rolls into
// the next month.
func ClampDayOfMonth(year int, month time.Month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}

	return day
}

// MonthsAndRemainderDays returns the number of whole calendar months between
// birth and ref, plus the days from the most recent monthly anniversary of
// birth on-or-before ref.
//
// When birth's day-of-month does not exist in the anniversary month (born on
// the 31st, anchor month has 30 days), the anniversary clamps to the last day
// of that month. Both outputs are clamped to >= 0.
func MonthsAndRemainderDays(birth, ref time.Time) (months, days int) {
	months = (ref.Year()-birth.Year())*12 + int(ref.Month()) - int(birth.Month())

	if ref.Day() < birth.Day() {
		months--
	}

	if months < 0 {
		months = 0
	}

	anchor := monthlyAnniversary(birth, months)
	days = DaysBetween(anchor, ref)

	return months, days
}

// monthlyAnniversary returns birth advanced by the given number of whole
// months, with the day-of-month clamped rather than normalized. time.AddDate
// would roll Jan 31 + 1 month into March; we want the end of February.
func monthlyAnniversary(birth time.Time, months int) time.Time {
	total := int(birth.Month()) - 1 + months
	year := birth.Year() + total/12
	month := time.Month(total%12 + 1)
	day := ClampDayOfMonth(year, month, birth.Day())

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
