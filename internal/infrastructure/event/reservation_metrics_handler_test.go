package event

import (
	"context"
	"testing"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestReservationMetricsHandler(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	handler, err := NewReservationMetricsHandler(provider.Meter("test"))
	require.NoError(t, err)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(handler)

	entry := &stock.StockReservationEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemCode:          "ITEM-1",
		Warehouse:         "Stores - C",
		VoucherType:       stock.VoucherTypeSalesOrder,
		VoucherNo:         "SO-0001",
		VoucherDetailNo:   "SOI-0001",
		ReservedQty:       decimal.NewFromInt(12),
		DeliveredQty:      decimal.NewFromInt(2),
	}

	require.NoError(t, bus.Publish(context.Background(),
		stock.NewStockReservationSubmittedEvent(entry),
		stock.NewStockReservationStatusChangedEvent(entry, stock.ReservationStatusDraft, stock.ReservationStatusReserved),
		stock.NewStockReservationCancelledEvent(entry),
	))

	metrics := collect(t, reader)

	events, ok := metrics["stock_reservation_events_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range events.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, events.DataPoints, 3)

	transitions, ok := metrics["stock_reservation_status_transitions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, transitions.DataPoints, 1)
	status, _ := transitions.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, "Reserved", status.AsString())

	reserved, ok := metrics["stock_reservation_reserved_qty"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, reserved.DataPoints, 1)
	assert.Equal(t, 12.0, reserved.DataPoints[0].Sum)

	released, ok := metrics["stock_reservation_released_qty"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, released.DataPoints, 1)
	assert.Equal(t, 10.0, released.DataPoints[0].Sum)
}

func TestNewReservationMetricsHandler_NilMeter(t *testing.T) {
	_, err := NewReservationMetricsHandler(nil)
	assert.Error(t, err)
}
