package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherLineTables maps each voucher type to the table holding its lines.
// Table names are never taken from request input.
var VoucherLineTables = map[stock.VoucherType]string{
	stock.VoucherTypeSalesOrder:    "sales_order_items",
	stock.VoucherTypeStockTransfer: "stock_transfer_items",
}

// GormVoucherLineRepository implements VoucherLineRepository using GORM
type GormVoucherLineRepository struct {
	db *gorm.DB
}

// NewGormVoucherLineRepository creates a new GormVoucherLineRepository
func NewGormVoucherLineRepository(db *gorm.DB) *GormVoucherLineRepository {
	return &GormVoucherLineRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormVoucherLineRepository) WithTx(tx *gorm.DB) *GormVoucherLineRepository {
	return &GormVoucherLineRepository{db: tx}
}

func lineTable(voucherType stock.VoucherType) (string, error) {
	table, ok := VoucherLineTables[voucherType]
	if !ok {
		return "", shared.NewDomainError("UNKNOWN_VOUCHER_TYPE", fmt.Sprintf("Unknown voucher type %q", voucherType))
	}
	return table, nil
}

type stockReservedRow struct {
	StockReservedQty decimal.Decimal
}

// LockLine locks the voucher line row (SELECT ... FOR UPDATE) and returns its stock_reserved_qty.
// Must be called inside a transaction for the lock to hold.
func (r *GormVoucherLineRepository) LockLine(ctx context.Context, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	return r.readReserved(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

// GetStockReservedQty reads stock_reserved_qty without locking
func (r *GormVoucherLineRepository) GetStockReservedQty(ctx context.Context, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	return r.readReserved(r.db.WithContext(ctx), ref)
}

func (r *GormVoucherLineRepository) readReserved(db *gorm.DB, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	table, err := lineTable(ref.VoucherType)
	if err != nil {
		return decimal.Zero, err
	}
	var row stockReservedRow
	if err := db.Table(table).
		Select("stock_reserved_qty").
		Where("name = ? AND parent = ?", ref.VoucherDetailNo, ref.VoucherNo).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, err
	}
	return row.StockReservedQty, nil
}

// SetStockReservedQty overwrites stock_reserved_qty on the line
func (r *GormVoucherLineRepository) SetStockReservedQty(ctx context.Context, ref stock.VoucherLineRef, qty decimal.Decimal, touchModified bool) error {
	table, err := lineTable(ref.VoucherType)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"stock_reserved_qty": qty}
	if touchModified {
		updates["updated_at"] = time.Now()
	}
	result := r.db.WithContext(ctx).
		Table(table).
		Where("name = ? AND parent = ?", ref.VoucherDetailNo, ref.VoucherNo).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormVoucherLineRepository implements VoucherLineRepository
var _ stock.VoucherLineRepository = (*GormVoucherLineRepository)(nil)
