package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isow/backend/internal/domain/shared"
)

// RecordingHandler is a shared.EventHandler that remembers what it handled.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler creates a handler for eventTypes; none means all.
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to.
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error.
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the handled events.
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// Types returns the type of every handled event, in order.
func (h *RecordingHandler) Types() []string {
	events := h.Handled()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}

// SetError sets the error returned by Handle.
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// NewTestEvent creates a bare event of eventType for aggregate aggID.
func NewTestEvent(eventType, aggID string) *shared.BaseDomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "TestAggregate", aggID)
	return &e
}

// WaitForEventCount waits until the handler has processed at least count events.
func WaitForEventCount(t *testing.T, handler *RecordingHandler, count int, timeout time.Duration) {
	t.Helper()
	RequireEventually(t, func() bool {
		return len(handler.Handled()) >= count
	}, timeout, "expected %d events, got %v", count, handler.Types())
}
