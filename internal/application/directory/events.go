package directory

import (
	"context"

	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type events struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func newEvents(publisher shared.EventPublisher, logger *zap.Logger) events {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return events{publisher: publisher, logger: logger}
}

// publish never fails the mutation; the record is already stored.
func (e events) publish(ctx context.Context, ev shared.DomainEvent) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_id", ev.AggregateID()),
			zap.Error(err))
	}
}
