// Package reminder turns stored reminder rows into recurrence rules and
// computes upcoming triggers for a baby's dashboard and for the scheduler.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	sb "github.com/keyurgolani/BabyNest-sub008/backends/state"
	"github.com/keyurgolani/BabyNest-sub008/clog"
	"github.com/keyurgolani/BabyNest-sub008/recurrence"
	"github.com/keyurgolani/BabyNest-sub008/services/state"
	"github.com/keyurgolani/BabyNest-sub008/validate"
)

type IReminder interface {
	CreateReminder(ctx context.Context, babyID string, req *CreateReminderRequest) (*db.Reminder, error)
	NextTriggers(ctx context.Context, babyID string, now time.Time) ([]*NextTriggerResponse, error)
	NextTriggerFor(ctx context.Context, reminder *db.Reminder, now time.Time) (*recurrence.Trigger, error)
}

type Reminder struct {
	opts *Options
	log  clog.ICustomLog
}

type Options struct {
	Backend      *db.DB
	StateService state.IState
	Log          clog.ICustomLog
}

type CreateReminderRequest struct {
	EntryType        string   `json:"entryType"`
	IntervalMinutes  *int     `json:"intervalMinutes,omitempty"`
	ScheduledTimes   []string `json:"scheduledTimes,omitempty"`
	BasedOnLastEntry bool     `json:"basedOnLastEntry"`
	AfterMinutes     *int     `json:"afterMinutes,omitempty"`
}

type NextTriggerResponse struct {
	ReminderID string              `json:"reminderId"`
	EntryType  string              `json:"entryType"`
	Trigger    *recurrence.Trigger `json:"trigger,omitempty"`
}

func New(opts *Options) (*Reminder, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "failed to validate options")
	}

	return &Reminder{
		opts: opts,
		log:  opts.Log.With(zap.String("pkg", "reminder")),
	}, nil
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.Backend == nil {
		return errors.New("backend cannot be nil")
	}

	if opts.StateService == nil {
		return errors.New("state service cannot be nil")
	}

	if opts.Log == nil {
		return errors.New("log cannot be nil")
	}

	return nil
}

// RuleFromRecord converts a stored reminder row into a recurrence rule. A row
// that configures none or several recurrence modes is rejected.
func RuleFromRecord(r *db.Reminder) (recurrence.Rule, error) {
	if r == nil {
		return nil, errors.New("reminder cannot be nil")
	}

	if err := validate.Reminder(r); err != nil {
		return nil, err
	}

	switch {
	case r.IntervalMinutes != nil:
		return recurrence.Interval{Minutes: *r.IntervalMinutes}, nil
	case len(r.ScheduledTimes) > 0:
		return recurrence.FixedSchedule{Times: r.ScheduledTimes}, nil
	default:
		return recurrence.BasedOnLastEntry{AfterMinutes: *r.AfterMinutes}, nil
	}
}

func (r *Reminder) CreateReminder(ctx context.Context, babyID string, req *CreateReminderRequest) (*db.Reminder, error) {
	logger := r.log.With(zap.String("method", "CreateReminder"))

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if _, err := r.opts.Backend.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	reminder := &db.Reminder{
		ID:               uuid.New().String(),
		BabyID:           babyID,
		EntryType:        req.EntryType,
		Enabled:          true,
		IntervalMinutes:  req.IntervalMinutes,
		ScheduledTimes:   req.ScheduledTimes,
		BasedOnLastEntry: req.BasedOnLastEntry,
		AfterMinutes:     req.AfterMinutes,
		CreatedAt:        time.Now().UTC(),
	}

	// Conversion doubles as validation of the mode columns
	if _, err := RuleFromRecord(reminder); err != nil {
		return nil, errors.Wrap(err, "invalid reminder")
	}

	if err := r.opts.Backend.CreateReminder(ctx, reminder); err != nil {
		return nil, errors.Wrap(err, "failed to create reminder")
	}

	logger.Debug("Created reminder",
		zap.String("id", reminder.ID), zap.String("babyId", babyID))

	return reminder, nil
}

// NextTriggers computes the upcoming trigger for each of the baby's enabled
// reminders. Reminders whose rule cannot produce a trigger yet (eg. a
// last-entry rule with no logged entries) are returned with a nil Trigger.
func (r *Reminder) NextTriggers(ctx context.Context, babyID string, now time.Time) ([]*NextTriggerResponse, error) {
	logger := r.log.With(zap.String("method", "NextTriggers"), zap.String("babyId", babyID))

	if _, err := r.opts.Backend.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	reminders, err := r.opts.Backend.ListEnabledReminders(ctx, babyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reminders")
	}

	responses := make([]*NextTriggerResponse, 0, len(reminders))

	for i := range reminders {
		reminder := &reminders[i]

		trigger, err := r.NextTriggerFor(ctx, reminder, now)
		if err != nil {
			logger.Error("failed to compute trigger - skipping reminder",
				zap.String("reminderId", reminder.ID), zap.Error(err))
			continue
		}

		responses = append(responses, &NextTriggerResponse{
			ReminderID: reminder.ID,
			EntryType:  reminder.EntryType,
			Trigger:    trigger,
		})
	}

	return responses, nil
}

// NextTriggerFor computes a single reminder's next trigger relative to now.
func (r *Reminder) NextTriggerFor(ctx context.Context, reminder *db.Reminder, now time.Time) (*recurrence.Trigger, error) {
	rule, err := RuleFromRecord(reminder)
	if err != nil {
		return nil, err
	}

	lastEntryAt, err := r.lastEntryAt(ctx, reminder.BabyID, reminder.EntryType)
	if err != nil {
		return nil, err
	}

	return recurrence.NextTrigger(rule, now, lastEntryAt), nil
}

// lastEntryAt resolves the baseline for interval and last-entry rules: the
// global state snapshot first, the DB as fallback when the snapshot has not
// been populated yet. Returns nil when the baby has never logged that type.
func (r *Reminder) lastEntryAt(ctx context.Context, babyID, entryType string) (*time.Time, error) {
	snapshot, err := r.opts.StateService.GetLastEntry(ctx, babyID, entryType)
	if err == nil {
		return &snapshot.RecordedAt, nil
	}

	if !errors.Is(err, sb.ErrDoesNotExist) {
		return nil, errors.Wrap(err, "failed to get last-entry snapshot")
	}

	entry, err := r.opts.Backend.LatestEntryByType(ctx, babyID, entryType)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to get latest entry")
	}

	return &entry.RecordedAt, nil
}
