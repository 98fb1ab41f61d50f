// Package age converts a date of birth and a reference instant into a
// structured age. Results are ephemeral - recomputed on demand, never stored.
package age

import (
	"fmt"
	"strings"
	"time"

	"github.com/keyurgolani/BabyNest-sub008/datemath"
)

type Age struct {
	Months    int `json:"months"`
	Days      int `json:"days"`
	TotalDays int `json:"totalDays"`
}

// Calculate returns the age at ref for the given date of birth. A date of
// birth in the future yields a zero Age rather than an error. Time-of-day on
// either input does not affect the result.
func Calculate(dateOfBirth, ref time.Time) Age {
	if datemath.StartOfDay(dateOfBirth).After(datemath.StartOfDay(ref)) {
		return Age{}
	}

	months, days := datemath.MonthsAndRemainderDays(dateOfBirth, ref)

	return Age{
		Months:    months,
		Days:      days,
		TotalDays: datemath.DaysBetween(dateOfBirth, ref),
	}
}

// String renders the age for display: "Newborn", "6 months, 15 days",
// "1 month", "12 days". Zero components are omitted entirely.
func (a Age) String() string {
	if a.Months == 0 && a.Days == 0 {
		return "Newborn"
	}

	parts := make([]string, 0, 2)

	if a.Months > 0 {
		parts = append(parts, pluralize(a.Months, "month"))
	}

	if a.Days > 0 {
		parts = append(parts, pluralize(a.Days, "day"))
	}

	return strings.Join(parts, ", ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}

	return fmt.Sprintf("%d %ss", n, unit)
}
