// Package scheduler runs the periodic sweep that fires due reminders and
// scheduled reports. A redis lock ensures only one replica sweeps per tick;
// the others skip and retry on their own next tick.
package scheduler

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	sb "github.com/keyurgolani/BabyNest-sub008/backends/state"
	"github.com/keyurgolani/BabyNest-sub008/clog"
	"github.com/keyurgolani/BabyNest-sub008/schedule"
	"github.com/keyurgolani/BabyNest-sub008/services/publisher"
	"github.com/keyurgolani/BabyNest-sub008/services/reminder"
)

const (
	LockKey = "scheduler-lock"

	DefaultInterval     = time.Minute
	DefaultLockTTL      = 50 * time.Second
	DefaultReminderLead = time.Minute
)

type IScheduler interface {
	Start() error
}

type Scheduler struct {
	opts *Options
	log  clog.ICustomLog
}

type Options struct {
	Backend          *db.DB
	StateBackend     sb.IState
	ReminderService  reminder.IReminder
	PublisherService publisher.IPublisher
	NewRelic         *newrelic.Application
	Log              clog.ICustomLog
	ShutdownCtx      context.Context

	// Interval is the sweep cadence; LockTTL must outlive a single sweep but
	// stay under two intervals so a crashed holder's lock expires in time.
	Interval     time.Duration
	LockTTL      time.Duration
	ReminderLead time.Duration
}

func New(opts *Options) (*Scheduler, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "failed to validate options")
	}

	return &Scheduler{
		opts: opts,
		log:  opts.Log.With(zap.String("pkg", "scheduler")),
	}, nil
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.Backend == nil {
		return errors.New("backend cannot be nil")
	}

	if opts.StateBackend == nil {
		return errors.New("state backend cannot be nil")
	}

	if opts.ReminderService == nil {
		return errors.New("reminder service cannot be nil")
	}

	if opts.PublisherService == nil {
		return errors.New("publisher service cannot be nil")
	}

	if opts.Log == nil {
		return errors.New("log cannot be nil")
	}

	if opts.ShutdownCtx == nil {
		return errors.New("shutdown context cannot be nil")
	}

	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}

	if opts.LockTTL == 0 {
		opts.LockTTL = DefaultLockTTL
	}

	if opts.ReminderLead == 0 {
		opts.ReminderLead = DefaultReminderLead
	}

	return nil
}

func (s *Scheduler) Start() error {
	go s.run()

	return nil
}

func (s *Scheduler) run() {
	logger := s.log.With(zap.String("method", "run"))
	logger.Debug("Starting scheduler loop", zap.Duration("interval", s.opts.Interval))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.opts.ShutdownCtx.Done():
			logger.Debug("shutdown detected - exiting")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Scheduler) sweep() {
	logger := s.log.With(zap.String("method", "sweep"))

	txn := s.opts.NewRelic.StartTransaction("SchedulerService.sweep")
	defer txn.End()

	ctx := newrelic.NewContext(s.opts.ShutdownCtx, txn)

	lock, err := s.opts.StateBackend.Obtain(ctx, LockKey, s.opts.LockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Debug("another replica holds the sweep lock - skipping")
			return
		}

		logger.Error("failed to obtain sweep lock", zap.Error(err))
		txn.NoticeError(err)
		return
	}

	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Error("failed to release sweep lock", zap.Error(err))
		}
	}()

	now := time.Now().UTC()

	s.fireDueReminders(ctx, now)
	s.fireDueReports(ctx, now)
}

// fireDueReminders publishes reminder.due for every enabled reminder whose
// next trigger falls within the lead window and has not been fired yet.
// LastFiredAt keyed to the trigger instant keeps interval and last-entry
// rules from re-firing until their baseline moves.
func (s *Scheduler) fireDueReminders(ctx context.Context, now time.Time) {
	logger := s.log.With(zap.String("method", "fireDueReminders"))

	reminders, err := s.opts.Backend.ListAllEnabledReminders(ctx)
	if err != nil {
		logger.Error("failed to list reminders", zap.Error(err))
		return
	}

	for i := range reminders {
		rec := &reminders[i]

		trigger, err := s.opts.ReminderService.NextTriggerFor(ctx, rec, now)
		if err != nil {
			logger.Error("failed to compute trigger - skipping",
				zap.String("reminderId", rec.ID), zap.Error(err))
			continue
		}

		if trigger == nil {
			continue
		}

		if trigger.At.After(now.Add(s.opts.ReminderLead)) {
			continue
		}

		if rec.LastFiredAt != nil && !rec.LastFiredAt.Before(trigger.At) {
			continue
		}

		if err := s.opts.PublisherService.PublishReminderDue(ctx, rec, trigger); err != nil {
			logger.Error("failed to publish reminder.due",
				zap.String("reminderId", rec.ID), zap.Error(err))
			continue
		}

		if err := s.opts.Backend.UpdateReminderLastFired(ctx, rec.ID, trigger.At); err != nil {
			logger.Error("failed to update last fired",
				zap.String("reminderId", rec.ID), zap.Error(err))
			continue
		}

		logger.Debug("Fired reminder",
			zap.String("reminderId", rec.ID),
			zap.String("babyId", rec.BabyID),
			zap.Time("triggerAt", trigger.At))
	}
}

// fireDueReports publishes report.due for every scheduled report whose
// next_send_at has passed, then advances next_send_at past now. Advancing
// from now rather than from the stored instant means a long outage produces
// one report, not a backlog.
func (s *Scheduler) fireDueReports(ctx context.Context, now time.Time) {
	logger := s.log.With(zap.String("method", "fireDueReports"))

	reports, err := s.opts.Backend.ListDueReports(ctx, now)
	if err != nil {
		logger.Error("failed to list due reports", zap.Error(err))
		return
	}

	for i := range reports {
		rec := &reports[i]

		freq := schedule.Frequency(rec.Frequency)
		start, end := schedule.ReportPeriod(freq, now)

		nextSendAt := schedule.NextSendAt(schedule.Config{
			Frequency:  freq,
			Time:       rec.TimeOfDay,
			DayOfWeek:  rec.DayOfWeek,
			DayOfMonth: rec.DayOfMonth,
		}, now)

		if err := s.opts.PublisherService.PublishReportDue(ctx, rec, start, end, nextSendAt); err != nil {
			logger.Error("failed to publish report.due",
				zap.String("reportId", rec.ID), zap.Error(err))
			continue
		}

		if err := s.opts.Backend.UpdateReportNextSendAt(ctx, rec.ID, nextSendAt); err != nil {
			logger.Error("failed to advance next send",
				zap.String("reportId", rec.ID), zap.Error(err))
			continue
		}

		logger.Debug("Fired report",
			zap.String("reportId", rec.ID),
			zap.String("babyId", rec.BabyID),
			zap.Time("nextSendAt", nextSendAt))
	}
}
