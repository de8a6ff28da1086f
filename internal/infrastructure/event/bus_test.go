package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New())}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)
	other := newTestHandler("OtherEvent")
	bus.Subscribe(other)
	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	event := newTestEvent("TestEvent")
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, []shared.DomainEvent{event}, handler.getHandled())
	assert.Empty(t, other.getHandled())
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("TestEvent")
	failing.err = errors.New("handler error")
	panicking := newTestHandler("TestEvent")
	panicking.panicMsg = "boom"
	healthy := newTestHandler("TestEvent")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("TestEvent"))

	require.NoError(t, err)
	assert.Len(t, healthy.getHandled(), 1)
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.IsRunning())
}

func TestReservationAuditHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewReservationAuditHandler(zap.New(core)))

	entry := &stock.StockReservationEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemCode:          "ITEM-1",
		Warehouse:         "Stores - C",
		VoucherType:       stock.VoucherTypeSalesOrder,
		VoucherNo:         "SO-0001",
		VoucherDetailNo:   "SOI-0001",
		ReservedQty:       decimal.NewFromInt(10),
		DeliveredQty:      decimal.Zero,
	}

	require.NoError(t, bus.Publish(context.Background(),
		stock.NewStockReservationSubmittedEvent(entry),
		stock.NewStockReservationStatusChangedEvent(entry, stock.ReservationStatusDraft, stock.ReservationStatusReserved),
		newTestEvent("Unrelated"),
	))

	entries := logs.FilterMessage("reservation event").All()
	require.Len(t, entries, 2)
	submitted := entries[0].ContextMap()
	assert.Equal(t, stock.EventTypeStockReservationSubmitted, submitted["event_type"])
	assert.Equal(t, "voucher-line:Sales Order:SO-0001:SOI-0001", submitted["voucher_line"])
	assert.Equal(t, "10", submitted["reserved_qty"])
	assert.Equal(t, "Reserved", entries[1].ContextMap()["new_status"])
}
