package persistence

import (
	"context"

	appstock "github.com/erp/stockreservation/internal/application/stock"
	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/stock"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// EntryRepo returns the reservation entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) EntryRepo() stock.StockReservationEntryRepository {
	return NewGormStockReservationEntryRepository(r.tx)
}

// VoucherLineRepo returns the voucher line repository scoped to the current transaction.
func (r *gormTransactionalRepositories) VoucherLineRepo() stock.VoucherLineRepository {
	return NewGormVoucherLineRepository(r.tx)
}

// WarehouseRepo returns the warehouse repository scoped to the current transaction.
func (r *gormTransactionalRepositories) WarehouseRepo() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

var _ appstock.TransactionScope = (*GormTransactionScope)(nil)
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
