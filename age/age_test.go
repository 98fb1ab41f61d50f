package age

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		ref  time.Time
		want Age
	}{
		{"born today", date(2024, 6, 15), date(2024, 6, 15), Age{0, 0, 0}},
		{"one day old", date(2024, 6, 14), date(2024, 6, 15), Age{0, 1, 1}},
		{"exactly six months", date(2024, 1, 15), date(2024, 7, 15), Age{6, 0, 182}},
		{"six months fifteen days", date(2024, 1, 1), date(2024, 7, 16), Age{6, 15, 197}},
		{"leap day birth", date(2024, 2, 29), date(2024, 3, 1), Age{0, 1, 1}},
		{"future birth date yields zero age", date(2024, 7, 1), date(2024, 6, 15), Age{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.dob, tt.ref))
		})
	}
}

func TestCalculateIgnoresTimeOfDay(t *testing.T) {
	dob := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	ref := time.Date(2024, 2, 15, 0, 5, 0, 0, time.UTC)

	assert.Equal(t, Age{Months: 1, Days: 0, TotalDays: 31}, Calculate(dob, ref))
}

// TotalDays counts calendar days regardless of the zone timestamps arrive in;
// a span crossing the US spring-forward must not come up a day short.
func TestCalculateTotalDaysInDSTLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got := Calculate(
		time.Date(2024, 1, 31, 14, 0, 0, 0, loc),
		time.Date(2024, 4, 15, 8, 0, 0, 0, loc),
	)

	assert.Equal(t, Age{Months: 2, Days: 15, TotalDays: 75}, got)
}

// Younger babies always have strictly fewer total days.
func TestCalculateMonotonicity(t *testing.T) {
	ref := date(2024, 6, 15)
	older := Calculate(date(2024, 1, 10), ref)
	younger := Calculate(date(2024, 3, 20), ref)

	assert.Greater(t, older.TotalDays, younger.TotalDays)
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		age  Age
		want string
	}{
		{"newborn", Age{0, 0, 0}, "Newborn"},
		{"singular both", Age{1, 1, 31}, "1 month, 1 day"},
		{"plural both", Age{6, 15, 197}, "6 months, 15 days"},
		{"months only", Age{3, 0, 91}, "3 months"},
		{"days only", Age{0, 12, 12}, "12 days"},
		{"single day", Age{0, 1, 1}, "1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.age.String())
		})
	}
}
