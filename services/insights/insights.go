// Package insights computes the derived read models served to clients: ages,
// growth velocity series and the combined dashboard.
package insights

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/age"
	"github.com/keyurgolani/BabyNest-sub008/backends/cache"
	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/clog"
	"github.com/keyurgolani/BabyNest-sub008/growth"
	"github.com/keyurgolani/BabyNest-sub008/schedule"
	"github.com/keyurgolani/BabyNest-sub008/services/reminder"
	"github.com/keyurgolani/BabyNest-sub008/services/tracker"
)

type IInsights interface {
	GetAge(ctx context.Context, babyID string, ref time.Time) (*AgeResponse, error)
	GetVelocity(ctx context.Context, babyID string, unit growth.TimeUnit) (*growth.Result, error)
	GetDashboard(ctx context.Context, babyID string, now time.Time) (*DashboardResponse, error)
	BuildPeriodSummary(ctx context.Context, babyID string, freq schedule.Frequency, now time.Time) (*PeriodSummary, error)
}

type Insights struct {
	opts *Options
	log  clog.ICustomLog
}

type Options struct {
	TrackerService  tracker.ITracker
	ReminderService reminder.IReminder
	Cache           cache.ICache
	Log             clog.ICustomLog
}

type AgeResponse struct {
	BabyID  string  `json:"babyId"`
	Age     age.Age `json:"age"`
	Display string  `json:"display"`
}

type DashboardResponse struct {
	Baby         *db.Baby                        `json:"baby"`
	Age          age.Age                         `json:"age"`
	AgeDisplay   string                          `json:"ageDisplay"`
	Velocity     *growth.Result                  `json:"velocity,omitempty"`
	NextTriggers []*reminder.NextTriggerResponse `json:"nextTriggers"`
}

// PeriodSummary is the aggregate embedded in generated reports: entry counts
// per type over the report window.
type PeriodSummary struct {
	BabyID      string         `json:"babyId"`
	PeriodStart time.Time      `json:"periodStart"`
	PeriodEnd   time.Time      `json:"periodEnd"`
	EntryCounts map[string]int `json:"entryCounts"`
	TotalCount  int            `json:"totalCount"`
}

func New(opts *Options) (*Insights, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "failed to validate options")
	}

	return &Insights{
		opts: opts,
		log:  opts.Log.With(zap.String("pkg", "insights")),
	}, nil
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.TrackerService == nil {
		return errors.New("tracker service cannot be nil")
	}

	if opts.ReminderService == nil {
		return errors.New("reminder service cannot be nil")
	}

	if opts.Cache == nil {
		return errors.New("cache cannot be nil")
	}

	if opts.Log == nil {
		return errors.New("log cannot be nil")
	}

	return nil
}

func (i *Insights) GetAge(ctx context.Context, babyID string, ref time.Time) (*AgeResponse, error) {
	baby, err := i.opts.TrackerService.GetBaby(ctx, babyID)
	if err != nil {
		return nil, err
	}

	babyAge := age.Calculate(baby.BirthDate, ref)

	return &AgeResponse{
		BabyID:  babyID,
		Age:     babyAge,
		Display: babyAge.String(),
	}, nil
}

func (i *Insights) GetVelocity(ctx context.Context, babyID string, unit growth.TimeUnit) (*growth.Result, error) {
	cacheKey := cache.VelocityPrefix + ":" + babyID + ":" + string(unit)

	cached, ok := i.opts.Cache.Get(cacheKey)
	if ok {
		result, ok := cached.(*growth.Result)
		if ok {
			return result, nil
		}
	}

	measurements, err := i.opts.TrackerService.ListMeasurements(ctx, babyID)
	if err != nil {
		return nil, err
	}

	points := make([]growth.Measurement, 0, len(measurements))

	for _, m := range measurements {
		points = append(points, growth.Measurement{
			RecordedAt:        m.RecordedAt,
			Weight:            m.WeightGrams,
			Height:            m.HeightMm,
			HeadCircumference: m.HeadCircumferenceMm,
		})
	}

	result := growth.ComputeVelocity(points, unit)

	i.opts.Cache.Set(cacheKey, &result, cache.DefaultDerivedTTL)

	return &result, nil
}

func (i *Insights) GetDashboard(ctx context.Context, babyID string, now time.Time) (*DashboardResponse, error) {
	logger := i.log.With(zap.String("method", "GetDashboard"), zap.String("babyId", babyID))

	baby, err := i.opts.TrackerService.GetBaby(ctx, babyID)
	if err != nil {
		return nil, err
	}

	babyAge := age.Calculate(baby.BirthDate, now)

	velocity, err := i.GetVelocity(ctx, babyID, growth.TimeUnitWeek)
	if err != nil {
		// The dashboard should still render without a velocity series
		logger.Error("failed to compute velocity", zap.Error(err))
		velocity = nil
	}

	triggers, err := i.opts.ReminderService.NextTriggers(ctx, babyID, now)
	if err != nil {
		logger.Error("failed to compute next triggers", zap.Error(err))
		triggers = []*reminder.NextTriggerResponse{}
	}

	return &DashboardResponse{
		Baby:         baby,
		Age:          babyAge,
		AgeDisplay:   babyAge.String(),
		Velocity:     velocity,
		NextTriggers: triggers,
	}, nil
}

// BuildPeriodSummary aggregates entry counts over the report window that ends
// now and spans one day/week/month back depending on frequency.
func (i *Insights) BuildPeriodSummary(ctx context.Context, babyID string, freq schedule.Frequency, now time.Time) (*PeriodSummary, error) {
	start, end := schedule.ReportPeriod(freq, now)

	entries, err := i.opts.TrackerService.ListEntriesBetween(ctx, babyID, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)

	for _, e := range entries {
		counts[e.EntryType]++
	}

	return &PeriodSummary{
		BabyID:      babyID,
		PeriodStart: start,
		PeriodEnd:   end,
		EntryCounts: counts,
		TotalCount:  len(entries),
	}, nil
}
