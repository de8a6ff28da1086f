package stock

import (
	"context"

	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/stock"
)

// TransactionScope provides transactional access to the reservation repositories.
// All repository calls made through the TransactionalRepositories handed to fn
// commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	// EntryRepo returns the reservation entry repository scoped to the current transaction
	EntryRepo() stock.StockReservationEntryRepository
	// VoucherLineRepo returns the voucher line repository scoped to the current transaction
	VoucherLineRepo() stock.VoucherLineRepository
	// WarehouseRepo returns the warehouse repository scoped to the current transaction
	WarehouseRepo() partner.WarehouseRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// Useful for testing.
type NoOpTransactionScope struct {
	entryRepo     stock.StockReservationEntryRepository
	lineRepo      stock.VoucherLineRepository
	warehouseRepo partner.WarehouseRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
// warehouseRepo may be nil when the validator does not look warehouses up.
func NewNoOpTransactionScope(
	entryRepo stock.StockReservationEntryRepository,
	lineRepo stock.VoucherLineRepository,
	warehouseRepo partner.WarehouseRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{entryRepo: entryRepo, lineRepo: lineRepo, warehouseRepo: warehouseRepo}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// EntryRepo returns the reservation entry repository
func (s *NoOpTransactionScope) EntryRepo() stock.StockReservationEntryRepository {
	return s.entryRepo
}

// VoucherLineRepo returns the voucher line repository
func (s *NoOpTransactionScope) VoucherLineRepo() stock.VoucherLineRepository {
	return s.lineRepo
}

// WarehouseRepo returns the warehouse repository
func (s *NoOpTransactionScope) WarehouseRepo() partner.WarehouseRepository {
	return s.warehouseRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
