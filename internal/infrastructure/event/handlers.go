package event

import (
	"context"

	"github.com/isow/backend/internal/domain/directory"
	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DirectoryEventTypes lists every directory change event
var DirectoryEventTypes = []string{
	directory.EventTypeOrganizationCreated,
	directory.EventTypeOrganizationUpdated,
	directory.EventTypeOrganizationDeleted,
	directory.EventTypeIndividualCreated,
	directory.EventTypeIndividualUpdated,
	directory.EventTypeIndividualDeleted,
}

// AuditLogHandler writes one log line per directory change
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", ev.EventType()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID()),
		zap.Time("occurred_at", ev.OccurredAt()),
	}
	if rc, ok := ev.(*directory.RecordChangedEvent); ok {
		fields = append(fields, zap.String("collection", rc.Collection))
	}
	h.logger.Info("directory record changed", fields...)
	return nil
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return DirectoryEventTypes
}

// ForwardingHandler hands events to another publisher, e.g. a broker
type ForwardingHandler struct {
	next  shared.EventPublisher
	types []string
}

// NewForwardingHandler forwards the given event types (all when empty)
func NewForwardingHandler(next shared.EventPublisher, eventTypes ...string) *ForwardingHandler {
	return &ForwardingHandler{next: next, types: eventTypes}
}

// Handle forwards the event
func (h *ForwardingHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	return h.next.Publish(ctx, ev)
}

// EventTypes implements shared.EventHandler
func (h *ForwardingHandler) EventTypes() []string {
	return h.types
}
