package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestNextTriggerInterval(t *testing.T) {
	t.Run("measured from last entry when provided", func(t *testing.T) {
		last := now.Add(-90 * time.Minute)

		trigger := NextTrigger(Interval{Minutes: 180}, now, timePtr(last))

		require.NotNil(t, trigger)
		assert.Equal(t, last.Add(180*time.Minute), trigger.At)
		assert.Equal(t, 90, trigger.MinutesUntil)
	})

	t.Run("measured from now without a baseline", func(t *testing.T) {
		trigger := NextTrigger(Interval{Minutes: 60}, now, nil)

		require.NotNil(t, trigger)
		assert.Equal(t, now.Add(time.Hour), trigger.At)
		assert.Equal(t, 60, trigger.MinutesUntil)
	})

	t.Run("overdue trigger has negative minutes", func(t *testing.T) {
		last := now.Add(-4 * time.Hour)

		trigger := NextTrigger(Interval{Minutes: 120}, now, timePtr(last))

		require.NotNil(t, trigger)
		assert.Equal(t, -120, trigger.MinutesUntil)
		assert.Equal(t, "Now!", trigger.Countdown)
	})
}

func TestNextTriggerFixedSchedule(t *testing.T) {
	t.Run("picks the next slot still ahead today", func(t *testing.T) {
		rule := FixedSchedule{Times: []string{"08:00", "12:00", "16:00", "20:00"}}

		trigger := NextTrigger(rule, now, nil)

		require.NotNil(t, trigger)
		assert.Equal(t, time.Date(2024, 6, 12, 16, 0, 0, 0, time.UTC), trigger.At)
	})

	t.Run("rolls to the earliest slot tomorrow when all have passed", func(t *testing.T) {
		late := time.Date(2024, 6, 12, 21, 30, 0, 0, time.UTC)
		rule := FixedSchedule{Times: []string{"08:00", "12:00", "16:00", "20:00"}}

		trigger := NextTrigger(rule, late, nil)

		require.NotNil(t, trigger)
		assert.Equal(t, time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC), trigger.At)
	})

	t.Run("tolerates unsorted times", func(t *testing.T) {
		rule := FixedSchedule{Times: []string{"20:00", "15:00", "08:00"}}

		trigger := NextTrigger(rule, now, nil)

		require.NotNil(t, trigger)
		assert.Equal(t, time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC), trigger.At)
	})

	t.Run("empty schedule yields no trigger", func(t *testing.T) {
		assert.Nil(t, NextTrigger(FixedSchedule{}, now, nil))
	})
}

func TestNextTriggerBasedOnLastEntry(t *testing.T) {
	t.Run("fires a fixed offset after the last entry", func(t *testing.T) {
		last := now.Add(-30 * time.Minute)

		trigger := NextTrigger(BasedOnLastEntry{AfterMinutes: 180}, now, timePtr(last))

		require.NotNil(t, trigger)
		assert.Equal(t, last.Add(3*time.Hour), trigger.At)
		assert.Equal(t, 150, trigger.MinutesUntil)
	})

	t.Run("no baseline means no trigger, not an error", func(t *testing.T) {
		assert.Nil(t, NextTrigger(BasedOnLastEntry{AfterMinutes: 180}, now, nil))
	})
}

func TestNextTriggerNilRule(t *testing.T) {
	assert.Nil(t, NextTrigger(nil, now, nil))
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		name   string
		target time.Time
		want   string
	}{
		{"hours and minutes", now.Add(2*time.Hour + 15*time.Minute), "2h 15m"},
		{"minutes and seconds", now.Add(45*time.Minute + 10*time.Second), "45m 10s"},
		{"seconds only", now.Add(30 * time.Second), "30s"},
		{"hours and seconds skip zero minutes", now.Add(2*time.Hour + 15*time.Second), "2h 15s"},
		{"whole hour", now.Add(3 * time.Hour), "3h"},
		{"at now", now, "Now!"},
		{"overdue", now.Add(-10 * time.Minute), "Now!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCountdown(tt.target, now))
		})
	}
}
