package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormVoucherLineRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormVoucherLineRepository(db)
	ctx := context.Background()
	seedSalesOrderLine(t, db, "SO-1", "SOI-1")
	ref := stock.VoucherLineRef{VoucherType: stock.VoucherTypeSalesOrder, VoucherNo: "SO-1", VoucherDetailNo: "SOI-1"}

	t.Run("new line starts at zero", func(t *testing.T) {
		qty, err := repo.LockLine(ctx, ref)
		require.NoError(t, err)
		assert.True(t, qty.IsZero())
	})

	t.Run("set then read", func(t *testing.T) {
		require.NoError(t, repo.SetStockReservedQty(ctx, ref, decimal.NewFromInt(15), true))
		qty, err := repo.GetStockReservedQty(ctx, ref)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(15).Equal(qty))
	})

	t.Run("line is addressed by voucher and detail", func(t *testing.T) {
		other := ref
		other.VoucherNo = "SO-2"
		_, err := repo.GetStockReservedQty(ctx, other)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.SetStockReservedQty(ctx, other, decimal.NewFromInt(1), false), shared.ErrNotFound)
	})

	t.Run("unknown voucher type", func(t *testing.T) {
		bad := ref
		bad.VoucherType = "Purchase Order"
		_, err := repo.LockLine(ctx, bad)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNKNOWN_VOUCHER_TYPE", de.Code)
	})

	t.Run("stock transfer lines live in their own table", func(t *testing.T) {
		transfer := ref
		transfer.VoucherType = stock.VoucherTypeStockTransfer
		_, err := repo.LockLine(ctx, transfer)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVoucherLineRepository_LockLine_Postgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	repo := NewGormVoucherLineRepository(gormDB)

	mock.ExpectQuery(`SELECT stock_reserved_qty FROM "sales_order_items" WHERE name = \$1 AND parent = \$2 .*FOR UPDATE`).
		WithArgs("SOI-1", "SO-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"stock_reserved_qty"}).AddRow("12.5"))

	qty, err := repo.LockLine(context.Background(), stock.VoucherLineRef{
		VoucherType: stock.VoucherTypeSalesOrder, VoucherNo: "SO-1", VoucherDetailNo: "SOI-1",
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(qty))
	assert.NoError(t, mock.ExpectationsWereMet())
}
