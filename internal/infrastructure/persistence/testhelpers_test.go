package persistence

import (
	"testing"
	"time"

	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/config"
	"github.com/erp/stockreservation/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database. A single pooled
// connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func seedSalesOrderLine(t *testing.T, db *gorm.DB, voucherNo, detailNo string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&models.SalesOrderItemModel{VoucherLineModel: models.VoucherLineModel{
		Name:      detailNo,
		Parent:    voucherNo,
		ItemCode:  "ITEM-1",
		Warehouse: "Stores - C",
		StockQty:  decimal.NewFromInt(100),
		CreatedAt: now,
		UpdatedAt: now,
	}}).Error)
}

func seedWarehouse(t *testing.T, db *gorm.DB, code, company string) *partner.Warehouse {
	t.Helper()
	wh, err := partner.NewWarehouse(code, code, company)
	require.NoError(t, err)
	require.NoError(t, NewGormWarehouseRepository(db).Save(t.Context(), wh))
	return wh
}

func newEntry(voucherNo, detailNo string, reserved int64) *stock.StockReservationEntry {
	return stock.NewStockReservationEntry(stock.EntryFields{
		ItemCode:        "ITEM-1",
		Warehouse:       "Stores - C",
		StockUOM:        "Nos",
		PostingDate:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PostingTime:     "10:30:00",
		VoucherType:     stock.VoucherTypeSalesOrder,
		VoucherNo:       voucherNo,
		VoucherDetailNo: detailNo,
		AvailableQty:    decimal.NewFromInt(100),
		VoucherQty:      decimal.NewFromInt(20),
		ReservedQty:     decimal.NewFromInt(reserved),
		Company:         "Acme",
	})
}

func submittedEntry(t *testing.T, voucherNo, detailNo string, reserved int64) *stock.StockReservationEntry {
	t.Helper()
	e := newEntry(voucherNo, detailNo, reserved)
	require.NoError(t, e.Submit())
	return e
}
