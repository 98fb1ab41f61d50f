package publisher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/events"
	"github.com/keyurgolani/BabyNest-sub008/recurrence"
)

func (p *Publisher) PublishEntryCreated(ctx context.Context, entry *db.TrackingEntry) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	envelope, err := events.New(events.TypeEntryCreated, entry.BabyID, time.Now(), &events.EntryCreated{
		EntryID:    entry.ID,
		BabyID:     entry.BabyID,
		EntryType:  entry.EntryType,
		RecordedAt: entry.RecordedAt,
	})
	if err != nil {
		return errors.Wrap(err, "failed to generate entry.created event")
	}

	return p.publishEnvelope(ctx, envelope)
}

func (p *Publisher) PublishReminderDue(ctx context.Context, reminder *db.Reminder, trigger *recurrence.Trigger) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	if reminder == nil {
		return errors.New("reminder cannot be nil")
	}

	if trigger == nil {
		return errors.New("trigger cannot be nil")
	}

	envelope, err := events.New(events.TypeReminderDue, reminder.BabyID, time.Now(), &events.ReminderDue{
		ReminderID: reminder.ID,
		BabyID:     reminder.BabyID,
		EntryType:  reminder.EntryType,
		TriggerAt:  trigger.At,
		Countdown:  trigger.Countdown,
	})
	if err != nil {
		return errors.Wrap(err, "failed to generate reminder.due event")
	}

	return p.publishEnvelope(ctx, envelope)
}

func (p *Publisher) PublishReportDue(ctx context.Context, report *db.ScheduledReport, periodStart, periodEnd, nextSendAt time.Time) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	if report == nil {
		return errors.New("report cannot be nil")
	}

	envelope, err := events.New(events.TypeReportDue, report.BabyID, time.Now(), &events.ReportDue{
		ReportID:    report.ID,
		BabyID:      report.BabyID,
		Frequency:   report.Frequency,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		NextSendAt:  nextSendAt,
	})
	if err != nil {
		return errors.Wrap(err, "failed to generate report.due event")
	}

	return p.publishEnvelope(ctx, envelope)
}
