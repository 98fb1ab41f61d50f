package processor

import (
	"context"
	"runtime/debug"

	"github.com/newrelic/go-agent/v3/newrelic"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/events"
	"github.com/keyurgolani/BabyNest-sub008/util"
	"github.com/keyurgolani/BabyNest-sub008/validate"
)

// ConsumeFunc is a consumer function that will be executed by the "rabbit"
// library whenever Consume() reads a new message from RabbitMQ.
func (p *Processor) ConsumeFunc(msg amqp.Delivery) error {
	logger := p.log.With(
		zap.String("method", "ConsumeFunc"),
		zap.String("routingKey", msg.RoutingKey),
	)

	txn := p.options.NewRelic.StartTransaction("ProcessorService.ConsumeFunc")
	defer txn.End()

	// ConsumeFunc runs in goroutine
	defer func() {
		if r := recover(); r != nil {
			util.Error(txn, logger, "recovered from panic", nil,
				zap.Any("panic", r),
				zap.Stack("stack"),
				zap.Any("panicTrace", string(debug.Stack())),
			)
		}
	}()

	// ACK up-front: the snapshot write is idempotent and a dropped message is
	// repaired by the next entry for the same baby/type, so requeue loops hurt
	// more than a lost delivery here.
	if err := msg.Ack(false); err != nil {
		util.Error(txn, logger, "unable to acknowledge message", err)
		return nil
	}

	// Try to decode message and dispatch it accordingly
	envelope, err := events.Unmarshal(msg.Body)
	if err != nil {
		util.Error(txn, logger, "unable to unmarshal event", err)
		return nil
	}

	if err := validate.Envelope(envelope); err != nil {
		util.Error(txn, logger, "unable to validate event", err)
		return nil
	}

	logger = logger.With(
		zap.String("cloudEventID", envelope.ID),
		zap.String("cloudEventType", envelope.Type),
		zap.String("cloudEventSource", envelope.Source),
	)

	// Create context with logger that we can pass around
	ctx := context.WithValue(context.Background(), "logger", logger)

	// Now add NewRelic txn to context
	ctx = newrelic.NewContext(ctx, txn)

	// Add cloud events attributes to NewRelic txn
	txn.AddAttribute("cloudEventID", envelope.ID)
	txn.AddAttribute("cloudEventType", envelope.Type)
	txn.AddAttribute("cloudEventSource", envelope.Source)

	switch envelope.Type {
	case events.TypeEntryCreated:
		err = p.handleEntryCreated(ctx, envelope)
	default:
		// reminder.due and report.due are for downstream delivery services
		return nil
	}

	if err != nil {
		util.Error(txn, logger, "error processing message", err)
		return nil
	}

	return nil
}
