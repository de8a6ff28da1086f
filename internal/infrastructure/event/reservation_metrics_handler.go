package event

import (
	"context"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// ReservationMetricsHandler turns reservation lifecycle events into
// OpenTelemetry instruments.
type ReservationMetricsHandler struct {
	events      *telemetry.Counter
	transitions *telemetry.Counter
	reserved    *telemetry.Histogram
	released    *telemetry.Histogram
}

// NewReservationMetricsHandler creates the reservation instruments on meter
func NewReservationMetricsHandler(meter metric.Meter) (*ReservationMetricsHandler, error) {
	if meter == nil {
		return nil, telemetry.ErrMeterNil
	}

	events, err := telemetry.NewCounter(meter,
		"stock_reservation_events_total", "Reservation lifecycle events published", "{event}")
	if err != nil {
		return nil, err
	}
	transitions, err := telemetry.NewCounter(meter,
		"stock_reservation_status_transitions_total", "Reservation status changes by target status", "{transition}")
	if err != nil {
		return nil, err
	}
	reserved, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "stock_reservation_reserved_qty",
		Description: "Quantity reserved per submitted entry",
		Unit:        "{unit}",
		Boundaries:  telemetry.QuantityBuckets,
	})
	if err != nil {
		return nil, err
	}
	released, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "stock_reservation_released_qty",
		Description: "Undelivered quantity released per cancelled entry",
		Unit:        "{unit}",
		Boundaries:  telemetry.QuantityBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &ReservationMetricsHandler{
		events:      events,
		transitions: transitions,
		reserved:    reserved,
		released:    released,
	}, nil
}

// EventTypes returns the reservation event types
func (h *ReservationMetricsHandler) EventTypes() []string {
	return []string{
		stock.EventTypeStockReservationSubmitted,
		stock.EventTypeStockReservationCancelled,
		stock.EventTypeStockReservationStatusChanged,
	}
}

// Handle records the event
func (h *ReservationMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.events.Inc(ctx, telemetry.AttrEventType.String(event.EventType()))

	switch e := event.(type) {
	case *stock.StockReservationSubmittedEvent:
		h.reserved.Record(ctx, e.ReservedQty.InexactFloat64(),
			telemetry.AttrVoucherType.String(e.VoucherType),
			telemetry.AttrWarehouse.String(e.Warehouse),
		)
	case *stock.StockReservationCancelledEvent:
		h.released.Record(ctx, e.ReleasedQty.InexactFloat64(),
			telemetry.AttrVoucherType.String(e.VoucherType),
			telemetry.AttrWarehouse.String(e.Warehouse),
		)
	case *stock.StockReservationStatusChangedEvent:
		h.transitions.Inc(ctx, telemetry.AttrStatus.String(string(e.NewStatus)))
	}
	return nil
}

var _ shared.EventHandler = (*ReservationMetricsHandler)(nil)
