package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

func newOrderEvent(eventType string) *order.Event {
	return order.NewEvent(eventType, &order.Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            "SF-20261018-ABC123",
		Email:             "ada@example.com",
		Currency:          "USD",
	})
}

// recordingHandler records the events it receives
type recordingHandler struct {
	types   []string
	err     error
	panics  bool
	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, evt)
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	paid := &recordingHandler{types: []string{order.EventTypePaid}}
	shipped := &recordingHandler{types: []string{order.EventTypeShipped}}
	bus.Subscribe(paid)
	bus.Subscribe(shipped)

	require.NoError(t, bus.Publish(context.Background(),
		newOrderEvent(order.EventTypePaid),
		newOrderEvent(order.EventTypePaid),
		newOrderEvent(order.EventTypeShipped)))

	assert.Equal(t, 2, paid.count())
	assert.Equal(t, 1, shipped.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{order.EventTypePaid}}
	bus.Subscribe(h, order.EventTypeRefunded)

	_ = bus.Publish(context.Background(), newOrderEvent(order.EventTypePaid))
	assert.Equal(t, 0, h.count())
	_ = bus.Publish(context.Background(), newOrderEvent(order.EventTypeRefunded))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_CatchAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := &recordingHandler{}
	bus.Subscribe(all)

	_ = bus.Publish(context.Background(),
		newOrderEvent(order.EventTypePlaced),
		newOrderEvent(order.EventTypeCancelled))
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_DuplicateSubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{order.EventTypePaid}}
	bus.Subscribe(h)
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newOrderEvent(order.EventTypePaid))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{types: []string{order.EventTypePaid}, err: errors.New("smtp down")}
	panicking := &recordingHandler{types: []string{order.EventTypePaid}, panics: true}
	healthy := &recordingHandler{types: []string{order.EventTypePaid}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newOrderEvent(order.EventTypePaid))
	require.NoError(t, err)

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, logs.FilterMessage("Event handler panicked").Len())
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	typed := &recordingHandler{types: []string{order.EventTypePaid}}
	all := &recordingHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(all)

	bus.Unsubscribe(typed)
	bus.Unsubscribe(all)

	_ = bus.Publish(context.Background(), newOrderEvent(order.EventTypePaid))
	assert.Equal(t, 0, typed.count())
	assert.Equal(t, 0, all.count())
}

func TestInMemoryEventBus_NilEventIgnored(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := &recordingHandler{}
	bus.Subscribe(all)
	require.NoError(t, bus.Publish(context.Background(), nil))
	assert.Equal(t, 0, all.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}

func TestInMemoryEventBus_StopWaitsForPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	release := make(chan struct{})
	entered := make(chan struct{})
	bus.Subscribe(blockingHandler{entered: entered, release: release})

	go func() { _ = bus.Publish(context.Background(), newOrderEvent(order.EventTypePaid)) }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Stop(context.Background()))
}

type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
}

func (h blockingHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	close(h.entered)
	<-h.release
	return nil
}

func (h blockingHandler) EventTypes() []string { return nil }

func TestEnvelope_RoundTrip(t *testing.T) {
	evt := newOrderEvent(order.EventTypeShipped)
	evt.TrackingNumber = "1Z999"

	data, err := Encode(evt)
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID(), env.ID)
	assert.Equal(t, order.EventTypeShipped, env.Type)
	assert.Equal(t, evt.AggregateID(), env.AggregateID)
	assert.Equal(t, order.AggregateTypeOrder, env.AggregateType)
	assert.Contains(t, string(env.Payload), `"tracking_number":"1Z999"`)
	assert.NotContains(t, string(env.Payload), env.ID.String(), "metadata is not repeated in the payload")

	_, err = Decode([]byte(`{"type":""}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"id":"` + uuid.NewString() + `"}`))
	assert.Error(t, err)
}
