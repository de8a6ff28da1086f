package stock

import (
	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant for StockReservationEntry
const AggregateTypeStockReservationEntry = "StockReservationEntry"

// StockReservationEntry event type constants
const (
	EventTypeStockReservationSubmitted     = "StockReservationSubmitted"
	EventTypeStockReservationCancelled     = "StockReservationCancelled"
	EventTypeStockReservationStatusChanged = "StockReservationStatusChanged"
)

// StockReservationSubmittedEvent is raised when an entry is submitted
type StockReservationSubmittedEvent struct {
	shared.BaseDomainEvent
	EntryID         uuid.UUID       `json:"entry_id"`
	ItemCode        string          `json:"item_code"`
	Warehouse       string          `json:"warehouse"`
	VoucherType     string          `json:"voucher_type"`
	VoucherNo       string          `json:"voucher_no"`
	VoucherDetailNo string          `json:"voucher_detail_no"`
	ReservedQty     decimal.Decimal `json:"reserved_qty"`
}

// NewStockReservationSubmittedEvent creates a new StockReservationSubmittedEvent
func NewStockReservationSubmittedEvent(e *StockReservationEntry) *StockReservationSubmittedEvent {
	return &StockReservationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReservationSubmitted, AggregateTypeStockReservationEntry, e.ID),
		EntryID:         e.ID,
		ItemCode:        e.ItemCode,
		Warehouse:       e.Warehouse,
		VoucherType:     string(e.VoucherType),
		VoucherNo:       e.VoucherNo,
		VoucherDetailNo: e.VoucherDetailNo,
		ReservedQty:     e.ReservedQty,
	}
}

// StockReservationCancelledEvent is raised when a submitted entry is cancelled
type StockReservationCancelledEvent struct {
	shared.BaseDomainEvent
	EntryID         uuid.UUID       `json:"entry_id"`
	ItemCode        string          `json:"item_code"`
	Warehouse       string          `json:"warehouse"`
	VoucherType     string          `json:"voucher_type"`
	VoucherNo       string          `json:"voucher_no"`
	VoucherDetailNo string          `json:"voucher_detail_no"`
	ReleasedQty     decimal.Decimal `json:"released_qty"`
}

// NewStockReservationCancelledEvent creates a new StockReservationCancelledEvent
func NewStockReservationCancelledEvent(e *StockReservationEntry) *StockReservationCancelledEvent {
	return &StockReservationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReservationCancelled, AggregateTypeStockReservationEntry, e.ID),
		EntryID:         e.ID,
		ItemCode:        e.ItemCode,
		Warehouse:       e.Warehouse,
		VoucherType:     string(e.VoucherType),
		VoucherNo:       e.VoucherNo,
		VoucherDetailNo: e.VoucherDetailNo,
		ReleasedQty:     e.PendingQty(),
	}
}

// StockReservationStatusChangedEvent is raised when the cached status changes
type StockReservationStatusChangedEvent struct {
	shared.BaseDomainEvent
	EntryID   uuid.UUID         `json:"entry_id"`
	OldStatus ReservationStatus `json:"old_status"`
	NewStatus ReservationStatus `json:"new_status"`
}

// NewStockReservationStatusChangedEvent creates a new StockReservationStatusChangedEvent
func NewStockReservationStatusChangedEvent(e *StockReservationEntry, oldStatus, newStatus ReservationStatus) *StockReservationStatusChangedEvent {
	return &StockReservationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReservationStatusChanged, AggregateTypeStockReservationEntry, e.ID),
		EntryID:         e.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
