package recordstore

import (
	"context"
	"time"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// InstrumentedStore wraps a store with spans and record metrics
type InstrumentedStore struct {
	next    record.Store
	metrics *telemetry.RecordMetrics
}

var (
	_ record.Store   = (*InstrumentedStore)(nil)
	_ record.Counter = (*InstrumentedStore)(nil)
	_ record.Pinger  = (*InstrumentedStore)(nil)
)

// Instrument wraps next. A nil metrics set still produces spans.
func Instrument(next record.Store, metrics *telemetry.RecordMetrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op, collection string, started time.Time, err error) {
	s.metrics.Observe(ctx, op, collection, started, err)
}

func startSpan(ctx context.Context, op, collection string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recordstore", op,
		append(attrs, attribute.String(telemetry.SpanAttrCollection, collection))...)
	return ctx, func(err error) {
		telemetry.RecordError(span, err)
		span.End()
	}
}

// List implements record.Store
func (s *InstrumentedStore) List(ctx context.Context, collection string) (docs []record.Document, err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "list", collection)
	defer func() { end(err); s.observe(ctx, "list", collection, started, err) }()

	docs, err = s.next.List(ctx, collection)
	if err == nil {
		s.metrics.ObserveCount(ctx, collection, int64(len(docs)))
	}
	return docs, err
}

// Get implements record.Store
func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) (doc *record.Document, err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "get", collection, attribute.String(telemetry.SpanAttrRecordID, id))
	defer func() { end(err); s.observe(ctx, "get", collection, started, err) }()

	return s.next.Get(ctx, collection, id)
}

// Add implements record.Store
func (s *InstrumentedStore) Add(ctx context.Context, collection string, fields record.Fields) (id string, err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "add", collection)
	defer func() { end(err); s.observe(ctx, "add", collection, started, err) }()

	return s.next.Add(ctx, collection, fields)
}

// Update implements record.Store
func (s *InstrumentedStore) Update(ctx context.Context, collection, id string, fields record.Fields) (err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "update", collection, attribute.String(telemetry.SpanAttrRecordID, id))
	defer func() { end(err); s.observe(ctx, "update", collection, started, err) }()

	return s.next.Update(ctx, collection, id, fields)
}

// Delete implements record.Store
func (s *InstrumentedStore) Delete(ctx context.Context, collection, id string) (err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "delete", collection, attribute.String(telemetry.SpanAttrRecordID, id))
	defer func() { end(err); s.observe(ctx, "delete", collection, started, err) }()

	return s.next.Delete(ctx, collection, id)
}

// Count implements record.Counter, falling back to List on stores without one
func (s *InstrumentedStore) Count(ctx context.Context, collection string) (n int64, err error) {
	started := time.Now()
	ctx, end := startSpan(ctx, "count", collection)
	defer func() { end(err); s.observe(ctx, "count", collection, started, err) }()

	n, err = record.Count(ctx, s.next, collection)
	if err == nil {
		s.metrics.ObserveCount(ctx, collection, n)
	}
	return n, err
}

// Ping implements record.Pinger; stores without one are assumed reachable
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(record.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
