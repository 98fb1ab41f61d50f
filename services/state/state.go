// Package state maintains the per-baby last-entry snapshots in global state.
// The snapshots feed last-entry-based reminders without a DB round trip on
// every scheduler tick.
package state

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/cache"
	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	sb "github.com/keyurgolani/BabyNest-sub008/backends/state"
	"github.com/keyurgolani/BabyNest-sub008/clog"
)

var (
	LastEntryPrefix = "last-entry"
)

// LastEntry is the snapshot kept per (baby, entry type).
type LastEntry struct {
	EntryID    string    `json:"entryId"`
	BabyID     string    `json:"babyId"`
	EntryType  string    `json:"entryType"`
	RecordedAt time.Time `json:"recordedAt"`
}

type IState interface {
	GetLastEntry(ctx context.Context, babyID, entryType string) (*LastEntry, error)
	SetLastEntry(ctx context.Context, entry *db.TrackingEntry) error
	DeleteLastEntry(ctx context.Context, babyID, entryType string) error
}

type State struct {
	opts *Options
	log  clog.ICustomLog
}

type Options struct {
	Backend     sb.IState
	Cache       cache.ICache
	Log         clog.ICustomLog
	ShutdownCtx context.Context
}

func New(opts *Options) (*State, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "failed to validate options")
	}

	return &State{
		opts: opts,
		log:  opts.Log.With(zap.String("pkg", "state")),
	}, nil
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.Backend == nil {
		return errors.New("Backend cannot be nil")
	}

	if opts.Cache == nil {
		return errors.New("Cache cannot be nil")
	}

	if opts.Log == nil {
		return errors.New("Log cannot be nil")
	}

	if opts.ShutdownCtx == nil {
		return errors.New("ShutdownCtx cannot be nil")
	}

	return nil
}

func (s State) GetLastEntry(ctx context.Context, babyID, entryType string) (*LastEntry, error) {
	if babyID == "" {
		return nil, errors.New("baby id cannot be empty")
	}

	if entryType == "" {
		return nil, errors.New("entry type cannot be empty")
	}

	if ctx == nil {
		ctx = s.opts.ShutdownCtx
	}

	cacheKey := cache.LastEntryPrefix + ":" + babyID + ":" + entryType

	// Try to get snapshot from cache first
	cached, ok := s.opts.Cache.Get(cacheKey)
	if ok {
		s.log.Debug("found last-entry snapshot in cache",
			zap.String("babyId", babyID), zap.String("entryType", entryType))

		snapshot, ok := cached.(*LastEntry)
		if ok {
			return snapshot, nil
		}
	}

	s.log.Debug("snapshot not found in cache, trying state")

	snapshot := &LastEntry{}

	if err := s.opts.Backend.GetJSON(ctx, babyID+":"+entryType, snapshot, LastEntryPrefix); err != nil {
		if errors.Is(err, sb.ErrDoesNotExist) {
			return nil, sb.ErrDoesNotExist
		}

		return nil, errors.Wrap(err, "failed to get last-entry snapshot")
	}

	s.opts.Cache.Set(cacheKey, snapshot, 5*time.Second)

	return snapshot, nil
}

// SetLastEntry overwrites the snapshot only if the given entry is newer than
// what is already stored. Out-of-order deliveries and historical imports must
// not move the snapshot backwards.
func (s State) SetLastEntry(ctx context.Context, entry *db.TrackingEntry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	if ctx == nil {
		ctx = s.opts.ShutdownCtx
	}

	existing, err := s.GetLastEntry(ctx, entry.BabyID, entry.EntryType)
	if err != nil && !errors.Is(err, sb.ErrDoesNotExist) {
		return errors.Wrap(err, "failed to read existing snapshot")
	}

	if existing != nil && existing.RecordedAt.After(entry.RecordedAt) {
		s.log.Debug("existing snapshot is newer - skipping",
			zap.String("babyId", entry.BabyID), zap.String("entryType", entry.EntryType))
		return nil
	}

	snapshot := &LastEntry{
		EntryID:    entry.ID,
		BabyID:     entry.BabyID,
		EntryType:  entry.EntryType,
		RecordedAt: entry.RecordedAt,
	}

	if err := s.opts.Backend.SetJSON(ctx, entry.BabyID+":"+entry.EntryType, snapshot, LastEntryPrefix); err != nil {
		return errors.Wrap(err, "failed to set last-entry snapshot")
	}

	s.opts.Cache.Set(cache.LastEntryPrefix+":"+entry.BabyID+":"+entry.EntryType, snapshot, 5*time.Second)

	return nil
}

func (s State) DeleteLastEntry(ctx context.Context, babyID, entryType string) error {
	if babyID == "" {
		return errors.New("baby id cannot be empty")
	}

	if entryType == "" {
		return errors.New("entry type cannot be empty")
	}

	if ctx == nil {
		ctx = s.opts.ShutdownCtx
	}

	if err := s.opts.Backend.Delete(ctx, babyID+":"+entryType, LastEntryPrefix); err != nil {
		return errors.Wrap(err, "failed to delete last-entry snapshot")
	}

	s.opts.Cache.Remove(cache.LastEntryPrefix + ":" + babyID + ":" + entryType)

	return nil
}
