package event

import (
	"context"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ReservationAuditHandler writes one structured log line per reservation
// lifecycle event.
type ReservationAuditHandler struct {
	logger *zap.Logger
}

// NewReservationAuditHandler creates a new ReservationAuditHandler
func NewReservationAuditHandler(logger *zap.Logger) *ReservationAuditHandler {
	return &ReservationAuditHandler{logger: logger.Named("reservation_audit")}
}

// EventTypes returns the reservation event types
func (h *ReservationAuditHandler) EventTypes() []string {
	return []string{
		stock.EventTypeStockReservationSubmitted,
		stock.EventTypeStockReservationCancelled,
		stock.EventTypeStockReservationStatusChanged,
	}
}

// Handle logs the event
func (h *ReservationAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("entry_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *stock.StockReservationSubmittedEvent:
		fields = append(fields,
			zap.String("voucher_line", lineKey(e.VoucherType, e.VoucherNo, e.VoucherDetailNo)),
			zap.String("item_code", e.ItemCode),
			zap.String("warehouse", e.Warehouse),
			zap.String("reserved_qty", e.ReservedQty.String()),
		)
	case *stock.StockReservationCancelledEvent:
		fields = append(fields,
			zap.String("voucher_line", lineKey(e.VoucherType, e.VoucherNo, e.VoucherDetailNo)),
			zap.String("released_qty", e.ReleasedQty.String()),
		)
	case *stock.StockReservationStatusChangedEvent:
		fields = append(fields,
			zap.String("old_status", string(e.OldStatus)),
			zap.String("new_status", string(e.NewStatus)),
		)
	}

	logger.Ctx(ctx, h.logger).Info("reservation event", fields...)
	return nil
}

func lineKey(voucherType, voucherNo, voucherDetailNo string) string {
	return stock.VoucherLineRef{
		VoucherType:     stock.VoucherType(voucherType),
		VoucherNo:       voucherNo,
		VoucherDetailNo: voucherDetailNo,
	}.Key()
}

var _ shared.EventHandler = (*ReservationAuditHandler)(nil)
