package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/recurrence"
)

func intPtr(i int) *int { return &i }

func baseReminder() *db.Reminder {
	return &db.Reminder{
		ID:        "reminder-1",
		BabyID:    "baby-1",
		EntryType: "FEEDING",
		Enabled:   true,
	}
}

func TestRuleFromRecord_Interval(t *testing.T) {
	r := baseReminder()
	r.IntervalMinutes = intPtr(180)

	rule, err := RuleFromRecord(r)
	require.NoError(t, err)

	interval, ok := rule.(recurrence.Interval)
	require.True(t, ok)
	assert.Equal(t, 180, interval.Minutes)
}

func TestRuleFromRecord_FixedSchedule(t *testing.T) {
	r := baseReminder()
	r.ScheduledTimes = []string{"08:00", "14:00", "20:00"}

	rule, err := RuleFromRecord(r)
	require.NoError(t, err)

	fixed, ok := rule.(recurrence.FixedSchedule)
	require.True(t, ok)
	assert.Equal(t, []string{"08:00", "14:00", "20:00"}, fixed.Times)
}

func TestRuleFromRecord_BasedOnLastEntry(t *testing.T) {
	r := baseReminder()
	r.BasedOnLastEntry = true
	r.AfterMinutes = intPtr(150)

	rule, err := RuleFromRecord(r)
	require.NoError(t, err)

	lastEntry, ok := rule.(recurrence.BasedOnLastEntry)
	require.True(t, ok)
	assert.Equal(t, 150, lastEntry.AfterMinutes)
}

func TestRuleFromRecord_NoMode(t *testing.T) {
	_, err := RuleFromRecord(baseReminder())
	assert.Error(t, err)
}

func TestRuleFromRecord_MultipleModes(t *testing.T) {
	r := baseReminder()
	r.IntervalMinutes = intPtr(60)
	r.ScheduledTimes = []string{"08:00"}

	_, err := RuleFromRecord(r)
	assert.Error(t, err)
}

func TestRuleFromRecord_IntervalOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
	}{
		{"below minimum", 10},
		{"above maximum", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseReminder()
			r.IntervalMinutes = intPtr(tt.minutes)

			_, err := RuleFromRecord(r)
			assert.Error(t, err)
		})
	}
}

func TestRuleFromRecord_BasedOnLastEntryRequiresAfterMinutes(t *testing.T) {
	r := baseReminder()
	r.BasedOnLastEntry = true

	_, err := RuleFromRecord(r)
	assert.Error(t, err)
}

func TestRuleFromRecord_InvalidScheduledTime(t *testing.T) {
	r := baseReminder()
	r.ScheduledTimes = []string{"25:99"}

	_, err := RuleFromRecord(r)
	assert.Error(t, err)
}

func TestRuleFromRecord_NilReminder(t *testing.T) {
	_, err := RuleFromRecord(nil)
	assert.Error(t, err)
}
