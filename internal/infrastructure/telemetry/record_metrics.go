package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/isow/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values for the outcome attribute
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// RecordMetrics tracks calls against the record store
type RecordMetrics struct {
	backend    string
	operations *Counter
	duration   *Histogram
	documents  *Gauge
}

// NewRecordMetrics registers the record store instruments on meter
func NewRecordMetrics(meter metric.Meter, backend string) (*RecordMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	ops, err := NewCounter(meter, "isow_record_operations_total", "Record store operations by collection and outcome", "{operations}")
	if err != nil {
		return nil, err
	}
	dur, err := NewHistogram(meter, "isow_record_operation_duration_seconds", "Record store operation latency", "s", StoreDurationBuckets)
	if err != nil {
		return nil, err
	}
	docs, err := NewGauge(meter, "isow_record_documents", "Documents per collection at last count", "{documents}")
	if err != nil {
		return nil, err
	}

	return &RecordMetrics{backend: backend, operations: ops, duration: dur, documents: docs}, nil
}

// Observe records one finished store call
func (m *RecordMetrics) Observe(ctx context.Context, operation, collection string, started time.Time, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrBackend.String(m.backend),
		AttrOperation.String(operation),
		AttrCollection.String(collection),
	}
	m.duration.RecordDuration(ctx, time.Since(started), attrs...)
	m.operations.Inc(ctx, append(attrs, AttrOutcome.String(OutcomeFor(err)))...)
}

// ObserveCount records the latest document count of a collection
func (m *RecordMetrics) ObserveCount(ctx context.Context, collection string, n int64) {
	if m == nil {
		return
	}
	m.documents.Record(ctx, n, AttrBackend.String(m.backend), AttrCollection.String(collection))
}

// OutcomeFor classifies an error for the outcome attribute
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, shared.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		return OutcomeInvalid
	case errors.Is(err, shared.ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
