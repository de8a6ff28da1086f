package stock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	appstock "github.com/erp/stockreservation/internal/application/stock"
	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/config"
	"github.com/erp/stockreservation/internal/infrastructure/persistence"
	"github.com/erp/stockreservation/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db      *gorm.DB
	service *appstock.ReservationService
	lines   *persistence.GormVoucherLineRepository
}

var ledgerClock = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }

// testCtx bounds every service call so a stalled pool fails the test instead
// of hanging the run.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	database, err := persistence.Open(sqlite.Open(":memory:"), &config.DatabaseConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	f := &ledgerFixture{db: database.DB, lines: persistence.NewGormVoucherLineRepository(database.DB)}
	f.seedWarehouse(t)
	f.service = f.newService()
	return f
}

func (f *ledgerFixture) seedWarehouse(t *testing.T) {
	t.Helper()
	wh, err := partner.NewWarehouse("Stores - AC", "Stores", "Acme")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormWarehouseRepository(f.db).Save(testCtx(t), wh))
}

// newService builds a service with its own in-process line locker, the way
// a separate server process would.
func (f *ledgerFixture) newService() *appstock.ReservationService {
	validator := stock.NewReservationValidator(
		stock.NewClockPostingTimeValidator(ledgerClock, false),
		partner.NewWarehouseGuard(persistence.NewGormWarehouseRepository(f.db)),
	)
	service := appstock.NewReservationService(
		persistence.NewGormStockReservationEntryRepository(f.db),
		persistence.NewGormVoucherLineRepository(f.db),
		persistence.NewGormTransactionScope(f.db),
		validator, nil, zap.NewNop(),
	)
	service.SetClock(ledgerClock)
	return service
}

func (f *ledgerFixture) seedLine(t *testing.T, voucherNo, detailNo string) stock.VoucherLineRef {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.db.Create(&models.SalesOrderItemModel{VoucherLineModel: models.VoucherLineModel{
		Name:      detailNo,
		Parent:    voucherNo,
		ItemCode:  "ITEM-1",
		Warehouse: "Stores - AC",
		StockQty:  decimal.NewFromInt(100),
		CreatedAt: now,
		UpdatedAt: now,
	}}).Error)
	return stock.VoucherLineRef{VoucherType: stock.VoucherTypeSalesOrder, VoucherNo: voucherNo, VoucherDetailNo: detailNo}
}

func (f *ledgerFixture) create(t *testing.T, ref stock.VoucherLineRef, reserved int64) uuid.UUID {
	t.Helper()
	resp, err := f.service.Create(testCtx(t), appstock.CreateReservationRequest{
		ReservationFieldsRequest: appstock.ReservationFieldsRequest{
			ItemCode:        "ITEM-1",
			Warehouse:       "Stores - AC",
			StockUOM:        "Nos",
			PostingDate:     "2026-01-15",
			PostingTime:     "10:30:00",
			VoucherType:     string(ref.VoucherType),
			VoucherNo:       ref.VoucherNo,
			VoucherDetailNo: ref.VoucherDetailNo,
			AvailableQty:    decimal.NewFromInt(100),
			VoucherQty:      decimal.NewFromInt(20),
			ReservedQty:     decimal.NewFromInt(reserved),
			Company:         "Acme",
		},
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *ledgerFixture) lineQty(t *testing.T, ref stock.VoucherLineRef) decimal.Decimal {
	t.Helper()
	qty, err := f.lines.GetStockReservedQty(testCtx(t), ref)
	require.NoError(t, err)
	return qty
}

func assertQty(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

func TestReservationLedger_Lifecycle(t *testing.T) {
	ctx := testCtx(t)
	f := newLedgerFixture(t)
	ref := f.seedLine(t, "SO-0001", "SOI-0001")

	r1 := f.create(t, ref, 10)
	r2 := f.create(t, ref, 5)
	assertQty(t, 0, f.lineQty(t, ref))

	// first reservation on an empty line
	resp, err := f.service.Submit(ctx, r1)
	require.NoError(t, err)
	assert.Equal(t, string(stock.ReservationStatusReserved), resp.Status)
	assertQty(t, 10, f.lineQty(t, ref))

	// a second reservation adds to the line
	_, err = f.service.Submit(ctx, r2)
	require.NoError(t, err)
	assertQty(t, 15, f.lineQty(t, ref))

	// delivery reported by an external process
	require.NoError(t, f.db.Model(&models.StockReservationEntryModel{}).
		Where("id = ?", r1).UpdateColumn("delivered_qty", decimal.NewFromInt(4)).Error)
	resp, err = f.service.UpdateStatus(ctx, r1, appstock.UpdateStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(stock.ReservationStatusPartiallyDelivered), resp.Status)

	// full delivery
	resp, err = f.service.RecordDelivery(ctx, r1, appstock.RecordDeliveryRequest{DeliveredQty: ptr(decimal.NewFromInt(10))})
	require.NoError(t, err)
	assert.Equal(t, string(stock.ReservationStatusDelivered), resp.Status)

	// cancelling the second reservation releases its quantity
	resp, err = f.service.Cancel(ctx, r2)
	require.NoError(t, err)
	assert.Equal(t, string(stock.ReservationStatusCancelled), resp.Status)
	assertQty(t, 10, f.lineQty(t, ref))

	stored, err := f.service.Get(ctx, r2)
	require.NoError(t, err)
	assert.Equal(t, int(stock.DocStatusCancelled), stored.DocStatus)
	assert.Equal(t, string(stock.ReservationStatusCancelled), stored.Status)

	// recalculation without intervening changes is a no-op
	req := appstock.VoucherLineRequest{VoucherType: string(ref.VoucherType), VoucherNo: ref.VoucherNo, VoucherDetailNo: ref.VoucherDetailNo}
	for i := 0; i < 2; i++ {
		line, err := f.service.RecalculateVoucherLine(ctx, req)
		require.NoError(t, err)
		assertQty(t, 10, line.StockReservedQty)
	}
	line, err := f.service.GetVoucherLineReservedQty(ctx, req)
	require.NoError(t, err)
	assert.True(t, line.InSync)
	require.Len(t, line.Entries, 2)
	assert.ElementsMatch(t, []uuid.UUID{r1, r2}, []uuid.UUID{line.Entries[0].ID, line.Entries[1].ID})
}

func TestReservationLedger_SingleConnectionPool(t *testing.T) {
	ctx := testCtx(t)
	f := newLedgerFixture(t)
	ref := f.seedLine(t, "SO-0004", "SOI-0001")
	id := f.create(t, ref, 4)

	resp, err := f.service.UpdateDraft(ctx, id, appstock.UpdateReservationRequest{
		ReservationFieldsRequest: appstock.ReservationFieldsRequest{
			ItemCode:        "ITEM-1",
			Warehouse:       "Stores - AC",
			StockUOM:        "Nos",
			PostingDate:     "2026-01-16",
			PostingTime:     "08:00:00",
			VoucherType:     string(ref.VoucherType),
			VoucherNo:       ref.VoucherNo,
			VoucherDetailNo: ref.VoucherDetailNo,
			AvailableQty:    decimal.NewFromInt(100),
			VoucherQty:      decimal.NewFromInt(20),
			ReservedQty:     decimal.NewFromInt(6),
			Company:         "Acme",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-16", resp.PostingDate)

	_, err = f.service.Submit(ctx, id)
	require.NoError(t, err)
	require.NoError(t, ctx.Err())
	assertQty(t, 6, f.lineQty(t, ref))
}

func TestReservationLedger_ZonedClock(t *testing.T) {
	ctx := testCtx(t)
	f := newLedgerFixture(t)
	ref := f.seedLine(t, "SO-0005", "SOI-0001")

	// 03:00 UTC is 11:00 on the same day at UTC+8
	zone := time.FixedZone("UTC+8", 8*60*60)
	clock := func() time.Time { return time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC) }
	validator := stock.NewReservationValidator(
		stock.NewClockPostingTimeValidator(clock, false).WithLocation(zone),
		partner.NewWarehouseGuard(persistence.NewGormWarehouseRepository(f.db)),
	)
	service := appstock.NewReservationService(
		persistence.NewGormStockReservationEntryRepository(f.db),
		persistence.NewGormVoucherLineRepository(f.db),
		persistence.NewGormTransactionScope(f.db),
		validator, nil, zap.NewNop(),
	)
	service.SetClock(clock)
	service.SetLocation(zone)

	created, err := service.Create(ctx, appstock.CreateReservationRequest{
		ReservationFieldsRequest: appstock.ReservationFieldsRequest{
			ItemCode:        "ITEM-1",
			Warehouse:       "Stores - AC",
			StockUOM:        "Nos",
			VoucherType:     string(ref.VoucherType),
			VoucherNo:       ref.VoucherNo,
			VoucherDetailNo: ref.VoucherDetailNo,
			AvailableQty:    decimal.NewFromInt(100),
			VoucherQty:      decimal.NewFromInt(20),
			ReservedQty:     decimal.NewFromInt(7),
			Company:         "Acme",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", created.PostingDate)
	assert.Equal(t, "11:00:00", created.PostingTime)

	resp, err := service.Submit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(stock.ReservationStatusReserved), resp.Status)
	assertQty(t, 7, f.lineQty(t, ref))
}

func TestReservationLedger_ConcurrentSubmits(t *testing.T) {
	ctx := testCtx(t)
	f := newLedgerFixture(t)
	ref := f.seedLine(t, "SO-0002", "SOI-0001")

	const n = 10
	ids := make([]uuid.UUID, n)
	var want int64
	for i := 0; i < n; i++ {
		ids[i] = f.create(t, ref, int64(i+1))
		want += int64(i + 1)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := f.service.Submit(ctx, id); err != nil {
				errs <- fmt.Errorf("submit %s: %w", id, err)
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	assertQty(t, want, f.lineQty(t, ref))
}

func TestReservationLedger_Rollback(t *testing.T) {
	ctx := testCtx(t)
	f := newLedgerFixture(t)

	t.Run("missing voucher line leaves entry in draft", func(t *testing.T) {
		orphan := stock.VoucherLineRef{VoucherType: stock.VoucherTypeSalesOrder, VoucherNo: "SO-404", VoucherDetailNo: "SOI-404"}
		id := f.create(t, orphan, 3)

		_, err := f.service.Submit(ctx, id)
		var pe *shared.PersistenceError
		require.True(t, errors.As(err, &pe))
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		stored, err := f.service.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int(stock.DocStatusDraft), stored.DocStatus)
		assert.Equal(t, string(stock.ReservationStatusDraft), stored.Status)
	})

	t.Run("disabled warehouse blocks submit", func(t *testing.T) {
		ref := f.seedLine(t, "SO-0003", "SOI-0001")
		id := f.create(t, ref, 3)

		warehouses := persistence.NewGormWarehouseRepository(f.db)
		wh, err := warehouses.FindByCode(ctx, "Stores - AC")
		require.NoError(t, err)
		require.NoError(t, wh.Disable())
		require.NoError(t, warehouses.Save(ctx, wh))

		_, err = f.service.Submit(ctx, id)
		assert.True(t, shared.IsValidationError(err, shared.ValidationKindDisabledWarehouse))
		assertQty(t, 0, f.lineQty(t, ref))
	})
}

func ptr[T any](v T) *T { return &v }
