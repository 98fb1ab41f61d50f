package processor

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/backends/db"
	"github.com/keyurgolani/BabyNest-sub008/events"
	"github.com/keyurgolani/BabyNest-sub008/validate"
)

func (p *Processor) handleEntryCreated(ctx context.Context, envelope *events.Envelope) error {
	logger := p.log.With(zap.String("method", "handleEntryCreated"))

	entryCreated := &events.EntryCreated{}

	if err := json.Unmarshal(envelope.Data, entryCreated); err != nil {
		logger.Error("failed to unmarshal entry created payload", zap.Error(err))
		return errors.Wrap(err, "failed to unmarshal entry created payload")
	}

	if err := validate.EntryCreatedEvent(entryCreated); err != nil {
		logger.Error("failed to validate entry created event", zap.Error(err))
		return errors.Wrap(err, "failed to validate entry created event")
	}

	logger = logger.With(
		zap.String("babyId", entryCreated.BabyID),
		zap.String("entryType", entryCreated.EntryType),
	)

	logger.Debug("Updating last-entry snapshot")

	// Update global state
	//
	// NOTE: This is good and meh - all replicas will attempt to update the state.
	// It's good because if one replica fails, another one will succeed (probably).
	// It's meh because it is wasteful for all replicas to perform writes.
	if err := p.options.StateService.SetLastEntry(p.options.ShutdownCtx, &db.TrackingEntry{
		ID:         entryCreated.EntryID,
		BabyID:     entryCreated.BabyID,
		EntryType:  entryCreated.EntryType,
		RecordedAt: entryCreated.RecordedAt,
	}); err != nil {
		logger.Error("failed to update last-entry snapshot", zap.Error(err))
		return errors.Wrap(err, "failed to update last-entry snapshot")
	}

	return nil
}
