package stock

import (
	"context"
	"sync"

	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType()
	}
	return types
}

// MockEntryRepository is a mock implementation of StockReservationEntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockReservationEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockReservationEntry), args.Error(1)
}

func (m *MockEntryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stock.StockReservationEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockReservationEntry), args.Error(1)
}

func (m *MockEntryRepository) FindAll(ctx context.Context, filter stock.EntryFilter) ([]stock.StockReservationEntry, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]stock.StockReservationEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepository) FindByVoucherLine(ctx context.Context, ref stock.VoucherLineRef) ([]stock.StockReservationEntry, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockReservationEntry), args.Error(1)
}

func (m *MockEntryRepository) Save(ctx context.Context, entry *stock.StockReservationEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEntryRepository) SumReservedQty(ctx context.Context, ref stock.VoucherLineRef, docStatus stock.DocStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, ref, docStatus)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockEntryRepository) SetStatus(ctx context.Context, id uuid.UUID, status stock.ReservationStatus, touchModified bool) error {
	return m.Called(ctx, id, status, touchModified).Error(0)
}

// MockVoucherLineRepository is a mock implementation of VoucherLineRepository
type MockVoucherLineRepository struct {
	mock.Mock
}

func (m *MockVoucherLineRepository) LockLine(ctx context.Context, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockVoucherLineRepository) GetStockReservedQty(ctx context.Context, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockVoucherLineRepository) SetStockReservedQty(ctx context.Context, ref stock.VoucherLineRef, qty decimal.Decimal, touchModified bool) error {
	return m.Called(ctx, ref, qty, touchModified).Error(0)
}

// MockWarehouseRepository is a mock of partner.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*partner.Warehouse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return m.Called(ctx, warehouse).Error(0)
}

type validatorFunc func(ctx context.Context, e *stock.StockReservationEntry) error

func (f validatorFunc) Validate(ctx context.Context, e *stock.StockReservationEntry) error {
	return f(ctx, e)
}

func acceptAll() EntryValidator {
	return validatorFunc(func(context.Context, *stock.StockReservationEntry) error { return nil })
}

func decimalEq(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}
