package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isow/backend/internal/domain/directory"
	"github.com/isow/backend/internal/domain/shared"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testHandler struct {
	eventTypes []string
	err        error
	panics     bool

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, ev)
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func orgCreated(id string) shared.DomainEvent {
	return directory.NewOrganizationEvent(directory.EventTypeOrganizationCreated,
		directory.Organization{ID: id, Name: "ACME", Email: "a@acme.com", TaxID: "1"})
}

func TestInMemoryEventBus_Delivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	typed := newTestHandler(directory.EventTypeOrganizationCreated)
	other := newTestHandler(directory.EventTypeIndividualDeleted)
	all := newTestHandler()
	failing := newTestHandler(directory.EventTypeOrganizationCreated)
	failing.err = errors.New("handler error")
	panicking := newTestHandler(directory.EventTypeOrganizationCreated)
	panicking.panics = true

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(typed)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), orgCreated("c1"), orgCreated("c2")))
	assert.Equal(t, 2, typed.count())
	assert.Equal(t, 2, all.count())
	assert.Equal(t, 0, other.count())
	assert.Equal(t, 2, failing.count())

	bus.Unsubscribe(typed)
	require.NoError(t, bus.Publish(context.Background(), orgCreated("c3")))
	assert.Equal(t, 2, typed.count())
	assert.Equal(t, 3, all.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(context.Background(), orgCreated("c1")), ErrBusStopped)
}

func TestEnvelope(t *testing.T) {
	ev := orgCreated("c1")
	data, err := Encode(ev)
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID().String(), env.EventID)
	assert.Equal(t, directory.EventTypeOrganizationCreated, env.EventType)
	assert.Equal(t, directory.AggregateTypeOrganization, env.AggregateType)
	assert.Equal(t, "c1", env.AggregateID)
	assert.Contains(t, string(env.Payload), `"collection":"companies"`)
}

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	pub := newAMQPPublisherWithChannel(ch, "isow.directory", zap.NewNop())

	ev := orgCreated("c1")
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"isow.directory/organization.created"}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, ev.EventID().String(), ch.published[0].MessageId)

	ch.err = errors.New("channel closed")
	assert.Error(t, pub.Publish(context.Background(), ev))

	require.NoError(t, pub.Close())
	assert.True(t, ch.closed)
	assert.Error(t, pub.Publish(context.Background(), ev))
}

func TestForwardingHandlerOnBus(t *testing.T) {
	ch := &fakeChannel{}
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(NewForwardingHandler(newAMQPPublisherWithChannel(ch, "x", zap.NewNop()), DirectoryEventTypes...))
	bus.Subscribe(NewAuditLogHandler(zap.NewNop()))

	require.NoError(t, bus.Publish(context.Background(), orgCreated("c1")))
	assert.Len(t, ch.published, 1)
}
