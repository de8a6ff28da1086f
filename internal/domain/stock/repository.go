package stock

import (
	"context"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockReservationEntryRepository defines the interface for reservation entry persistence
type StockReservationEntryRepository interface {
	// FindByID finds an entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockReservationEntry, error)

	// FindByIDForUpdate finds an entry and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockReservationEntry, error)

	// FindAll lists entries matching the filter
	FindAll(ctx context.Context, filter EntryFilter) ([]StockReservationEntry, int64, error)

	// FindByVoucherLine lists every entry held against a voucher line
	FindByVoucherLine(ctx context.Context, ref VoucherLineRef) ([]StockReservationEntry, error)

	// Save creates or updates an entry
	Save(ctx context.Context, entry *StockReservationEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, id uuid.UUID) error

	// SumReservedQty sums reserved_qty over entries of the line in the given
	// document status. An empty set sums to zero.
	SumReservedQty(ctx context.Context, ref VoucherLineRef, docStatus DocStatus) (decimal.Decimal, error)

	// SetStatus writes the cached status column only. When touchModified is
	// set the modification timestamp is bumped as well.
	SetStatus(ctx context.Context, id uuid.UUID, status ReservationStatus, touchModified bool) error
}

// VoucherLineRepository reads and writes the mirrored reservation field of voucher lines
type VoucherLineRepository interface {
	// LockLine locks the line row until the transaction ends and returns its current stock_reserved_qty
	LockLine(ctx context.Context, ref VoucherLineRef) (decimal.Decimal, error)

	// GetStockReservedQty reads the mirrored field without locking
	GetStockReservedQty(ctx context.Context, ref VoucherLineRef) (decimal.Decimal, error)

	// SetStockReservedQty overwrites stock_reserved_qty on the line
	SetStockReservedQty(ctx context.Context, ref VoucherLineRef, qty decimal.Decimal, touchModified bool) error
}

// EntryFilter narrows a listing of reservation entries
type EntryFilter struct {
	shared.Filter
	ItemCode        string
	Warehouse       string
	VoucherType     VoucherType
	VoucherNo       string
	VoucherDetailNo string
	Status          ReservationStatus
	DocStatus       *DocStatus
}
