// Package tracker owns the write path for babies, tracking entries and growth
// measurements, and the cached read path for baby records.
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/cache"
	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/clog"
	"github.com/keyurgolani/BabyNest-sub008/services/publisher"
	"github.com/keyurgolani/BabyNest-sub008/util"
	"github.com/keyurgolani/BabyNest-sub008/validate"
)

const (
	BabyCacheTTL = 5 * time.Minute
)

type ITracker interface {
	GetBaby(ctx context.Context, id string) (*db.Baby, error)
	CreateBaby(ctx context.Context, req *CreateBabyRequest) (*db.Baby, error)
	CreateEntry(ctx context.Context, babyID string, req *CreateEntryRequest) (*db.TrackingEntry, error)
	CreateMeasurement(ctx context.Context, babyID string, req *CreateMeasurementRequest) (*db.GrowthMeasurement, error)
	ListMeasurements(ctx context.Context, babyID string) ([]db.GrowthMeasurement, error)
	ListEntriesBetween(ctx context.Context, babyID string, from, to time.Time) ([]db.TrackingEntry, error)
}

type Tracker struct {
	opts *Options
	log  clog.ICustomLog
}

type Options struct {
	Backend          *db.DB
	Cache            cache.ICache
	PublisherService publisher.IPublisher
	Log              clog.ICustomLog
}

type CreateBabyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"` // YYYY-MM-DD
}

type CreateEntryRequest struct {
	EntryType  string    `json:"entryType"`
	RecordedAt time.Time `json:"recordedAt"`
	Note       *string   `json:"note,omitempty"`
}

type CreateMeasurementRequest struct {
	RecordedAt          time.Time `json:"recordedAt"`
	WeightGrams         *float64  `json:"weightGrams,omitempty"`
	HeightMm            *float64  `json:"heightMm,omitempty"`
	HeadCircumferenceMm *float64  `json:"headCircumferenceMm,omitempty"`
}

func New(opts *Options) (*Tracker, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "failed to validate options")
	}

	return &Tracker{
		opts: opts,
		log:  opts.Log.With(zap.String("pkg", "tracker")),
	}, nil
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.Backend == nil {
		return errors.New("backend cannot be nil")
	}

	if opts.Cache == nil {
		return errors.New("cache cannot be nil")
	}

	if opts.PublisherService == nil {
		return errors.New("publisher service cannot be nil")
	}

	if opts.Log == nil {
		return errors.New("log cannot be nil")
	}

	return nil
}

func (t *Tracker) GetBaby(ctx context.Context, id string) (*db.Baby, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty")
	}

	// Baby records change rarely, so they are safe to cache for minutes
	cached, ok := t.opts.Cache.Get(cache.BabyPrefix + ":" + id)
	if ok {
		baby, ok := cached.(*db.Baby)
		if ok {
			return baby, nil
		}
	}

	baby, err := t.opts.Backend.GetBaby(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get baby")
	}

	t.opts.Cache.Set(cache.BabyPrefix+":"+id, baby, BabyCacheTTL)

	return baby, nil
}

func (t *Tracker) CreateBaby(ctx context.Context, req *CreateBabyRequest) (*db.Baby, error) {
	logger := t.log.With(zap.String("method", "CreateBaby"))

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, errors.Wrap(err, "invalid birth date")
	}

	baby := &db.Baby{
		ID:        uuid.New().String(),
		Name:      req.Name,
		BirthDate: birthDate,
		CreatedAt: time.Now().UTC(),
	}

	if err := validate.Baby(baby); err != nil {
		return nil, errors.Wrap(err, "invalid baby")
	}

	if err := t.opts.Backend.CreateBaby(ctx, baby); err != nil {
		return nil, errors.Wrap(err, "failed to create baby")
	}

	logger.Debug("Created baby", zap.String("id", baby.ID))

	return baby, nil
}

// CreateEntry persists the entry and publishes entry.created. The last-entry
// snapshot used by reminders is updated by the processor when the event comes
// back around, so all replicas converge on the same state.
func (t *Tracker) CreateEntry(ctx context.Context, babyID string, req *CreateEntryRequest) (*db.TrackingEntry, error) {
	txn, logger := util.MethodSetup(ctx, t.log, zap.String("method", "CreateEntry"))

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if _, err := t.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	entry := &db.TrackingEntry{
		ID:         uuid.New().String(),
		BabyID:     babyID,
		EntryType:  req.EntryType,
		RecordedAt: req.RecordedAt,
		Note:       req.Note,
		CreatedAt:  time.Now().UTC(),
	}

	if err := validate.TrackingEntry(entry); err != nil {
		return nil, errors.Wrap(err, "invalid tracking entry")
	}

	if err := t.opts.Backend.CreateEntry(ctx, entry); err != nil {
		return nil, util.Error(txn, logger, "failed to create entry", err)
	}

	if err := t.opts.PublisherService.PublishEntryCreated(ctx, entry); err != nil {
		// The entry is already durable; reminders fall back to the DB when the
		// snapshot is stale, so a failed publish is not fatal.
		util.Error(txn, logger, "failed to publish entry.created", err,
			zap.String("entryId", entry.ID))
	}

	logger.Debug("Created entry",
		zap.String("id", entry.ID),
		zap.String("babyId", babyID),
		zap.String("entryType", entry.EntryType))

	return entry, nil
}

func (t *Tracker) CreateMeasurement(ctx context.Context, babyID string, req *CreateMeasurementRequest) (*db.GrowthMeasurement, error) {
	logger := t.log.With(zap.String("method", "CreateMeasurement"))

	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if _, err := t.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	measurement := &db.GrowthMeasurement{
		ID:                  uuid.New().String(),
		BabyID:              babyID,
		RecordedAt:          req.RecordedAt,
		WeightGrams:         req.WeightGrams,
		HeightMm:            req.HeightMm,
		HeadCircumferenceMm: req.HeadCircumferenceMm,
		CreatedAt:           time.Now().UTC(),
	}

	if err := validate.GrowthMeasurement(measurement); err != nil {
		return nil, errors.Wrap(err, "invalid growth measurement")
	}

	if err := t.opts.Backend.CreateMeasurement(ctx, measurement); err != nil {
		return nil, errors.Wrap(err, "failed to create measurement")
	}

	// New data invalidates any cached velocity series for this baby
	t.opts.Cache.Remove(cache.VelocityPrefix + ":" + babyID)

	logger.Debug("Created measurement",
		zap.String("id", measurement.ID), zap.String("babyId", babyID))

	return measurement, nil
}

func (t *Tracker) ListMeasurements(ctx context.Context, babyID string) ([]db.GrowthMeasurement, error) {
	if _, err := t.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	measurements, err := t.opts.Backend.ListMeasurements(ctx, babyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list measurements")
	}

	return measurements, nil
}

func (t *Tracker) ListEntriesBetween(ctx context.Context, babyID string, from, to time.Time) ([]db.TrackingEntry, error) {
	if _, err := t.GetBaby(ctx, babyID); err != nil {
		return nil, err
	}

	entries, err := t.opts.Backend.ListEntriesBetween(ctx, babyID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}

	return entries, nil
}
