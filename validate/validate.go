package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/events"
	"github.com/keyurgolani/BabyNest-sub008/recurrence"
	"github.com/keyurgolani/BabyNest-sub008/schedule"
)

func Envelope(envelope *events.Envelope) error {
	if envelope == nil {
		return errors.New("envelope cannot be nil")
	}

	if envelope.ID == "" {
		return errors.New("envelope id cannot be empty")
	}

	if envelope.DataContentType == "" {
		return errors.New("envelope data content type cannot be empty")
	}

	if envelope.Source == "" {
		return errors.New("envelope source cannot be empty")
	}

	if envelope.Type == "" {
		return errors.New("envelope type cannot be empty")
	}

	if envelope.Time == 0 {
		return errors.New("envelope time cannot be zero")
	}

	if envelope.SpecVersion == "" {
		return errors.New("envelope spec version cannot be empty")
	}

	return nil
}

func Baby(baby *db.Baby) error {
	if baby == nil {
		return fmt.Errorf("baby cannot be nil")
	}

	if baby.ID == "" {
		return fmt.Errorf("baby id cannot be empty")
	}

	if baby.Name == "" {
		return fmt.Errorf("baby name cannot be empty")
	}

	if baby.BirthDate.IsZero() {
		return fmt.Errorf("baby birth date cannot be zero")
	}

	return nil
}

func TrackingEntry(entry *db.TrackingEntry) error {
	if entry == nil {
		return fmt.Errorf("tracking entry cannot be nil")
	}

	if entry.BabyID == "" {
		return fmt.Errorf("tracking entry baby id cannot be empty")
	}

	if entry.EntryType == "" {
		return fmt.Errorf("tracking entry type cannot be empty")
	}

	if entry.RecordedAt.IsZero() {
		return fmt.Errorf("tracking entry recorded time cannot be zero")
	}

	return nil
}

func GrowthMeasurement(measurement *db.GrowthMeasurement) error {
	if measurement == nil {
		return fmt.Errorf("growth measurement cannot be nil")
	}

	if measurement.BabyID == "" {
		return fmt.Errorf("growth measurement baby id cannot be empty")
	}

	if measurement.RecordedAt.IsZero() {
		return fmt.Errorf("growth measurement recorded time cannot be zero")
	}

	if measurement.WeightGrams == nil && measurement.HeightMm == nil && measurement.HeadCircumferenceMm == nil {
		return fmt.Errorf("growth measurement must carry at least one metric")
	}

	return nil
}

// Reminder checks that exactly one recurrence mode is set on the record and
// that the chosen mode's parameters are in range.
func Reminder(reminder *db.Reminder) error {
	if reminder == nil {
		return fmt.Errorf("reminder cannot be nil")
	}

	if reminder.BabyID == "" {
		return fmt.Errorf("reminder baby id cannot be empty")
	}

	if reminder.EntryType == "" {
		return fmt.Errorf("reminder entry type cannot be empty")
	}

	modes := 0

	if reminder.IntervalMinutes != nil {
		modes++

		if *reminder.IntervalMinutes < recurrence.MinIntervalMinutes || *reminder.IntervalMinutes > recurrence.MaxIntervalMinutes {
			return fmt.Errorf("reminder interval must be between %d and %d minutes",
				recurrence.MinIntervalMinutes, recurrence.MaxIntervalMinutes)
		}
	}

	if len(reminder.ScheduledTimes) > 0 {
		modes++

		for _, t := range reminder.ScheduledTimes {
			if err := TimeOfDay(t); err != nil {
				return errors.Wrap(err, "invalid scheduled time")
			}
		}
	}

	if reminder.BasedOnLastEntry {
		modes++

		if reminder.AfterMinutes == nil || *reminder.AfterMinutes <= 0 {
			return fmt.Errorf("reminder based on last entry requires a positive after-minutes value")
		}
	}

	if modes != 1 {
		return fmt.Errorf("reminder must configure exactly one recurrence mode, got %d", modes)
	}

	return nil
}

func ScheduledReport(report *db.ScheduledReport) error {
	if report == nil {
		return fmt.Errorf("scheduled report cannot be nil")
	}

	if report.BabyID == "" {
		return fmt.Errorf("scheduled report baby id cannot be empty")
	}

	switch schedule.Frequency(report.Frequency) {
	case schedule.FrequencyDaily:
	case schedule.FrequencyWeekly:
		if report.DayOfWeek != nil && (*report.DayOfWeek < 0 || *report.DayOfWeek > 6) {
			return fmt.Errorf("scheduled report day of week must be between 0 and 6")
		}
	case schedule.FrequencyMonthly:
		if report.DayOfMonth != nil && (*report.DayOfMonth < 1 || *report.DayOfMonth > 31) {
			return fmt.Errorf("scheduled report day of month must be between 1 and 31")
		}
	default:
		return fmt.Errorf("unknown scheduled report frequency '%s'", report.Frequency)
	}

	if report.TimeOfDay != "" {
		if err := TimeOfDay(report.TimeOfDay); err != nil {
			return errors.Wrap(err, "invalid report time of day")
		}
	}

	return nil
}

// TimeOfDay validates a wall-clock string in HH:MM form.
func TimeOfDay(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return fmt.Errorf("time of day '%s' must be in HH:MM form", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("time of day '%s' has an invalid hour", value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("time of day '%s' has an invalid minute", value)
	}

	return nil
}

func EntryCreatedEvent(event *events.EntryCreated) error {
	if event == nil {
		return errors.New("entry created event cannot be nil")
	}

	if event.EntryID == "" {
		return errors.New("entry created event entry id cannot be empty")
	}

	if event.BabyID == "" {
		return errors.New("entry created event baby id cannot be empty")
	}

	if event.EntryType == "" {
		return errors.New("entry created event entry type cannot be empty")
	}

	if event.RecordedAt.IsZero() {
		return errors.New("entry created event recorded time cannot be zero")
	}

	return nil
}
