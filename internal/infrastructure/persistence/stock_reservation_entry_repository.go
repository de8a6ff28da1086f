package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockReservationEntryRepository implements StockReservationEntryRepository using GORM
type GormStockReservationEntryRepository struct {
	db *gorm.DB
}

// NewGormStockReservationEntryRepository creates a new GormStockReservationEntryRepository
func NewGormStockReservationEntryRepository(db *gorm.DB) *GormStockReservationEntryRepository {
	return &GormStockReservationEntryRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormStockReservationEntryRepository) WithTx(tx *gorm.DB) *GormStockReservationEntryRepository {
	return &GormStockReservationEntryRepository{db: tx}
}

// FindByID finds an entry by its ID
func (r *GormStockReservationEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockReservationEntry, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an entry with a row lock (SELECT ... FOR UPDATE).
// Must be called inside a transaction for the lock to hold.
func (r *GormStockReservationEntryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stock.StockReservationEntry, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormStockReservationEntryRepository) findOne(db *gorm.DB, id uuid.UUID) (*stock.StockReservationEntry, error) {
	var model models.StockReservationEntryModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists entries matching the filter together with the unpaginated total
func (r *GormStockReservationEntryRepository) FindAll(ctx context.Context, filter stock.EntryFilter) ([]stock.StockReservationEntry, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockReservationEntryModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, StockReservationEntrySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var entryModels []models.StockReservationEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainEntries(entryModels), total, nil
}

func (r *GormStockReservationEntryRepository) applyFilter(query *gorm.DB, filter stock.EntryFilter) *gorm.DB {
	if filter.ItemCode != "" {
		query = query.Where("item_code = ?", filter.ItemCode)
	}
	if filter.Warehouse != "" {
		query = query.Where("warehouse = ?", filter.Warehouse)
	}
	if filter.VoucherType != "" {
		query = query.Where("voucher_type = ?", string(filter.VoucherType))
	}
	if filter.VoucherNo != "" {
		query = query.Where("voucher_no = ?", filter.VoucherNo)
	}
	if filter.VoucherDetailNo != "" {
		query = query.Where("voucher_detail_no = ?", filter.VoucherDetailNo)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.DocStatus != nil {
		query = query.Where("docstatus = ?", int(*filter.DocStatus))
	}
	return query
}

// FindByVoucherLine lists every entry held against a voucher line, oldest first
func (r *GormStockReservationEntryRepository) FindByVoucherLine(ctx context.Context, ref stock.VoucherLineRef) ([]stock.StockReservationEntry, error) {
	var entryModels []models.StockReservationEntryModel
	if err := r.db.WithContext(ctx).
		Where("voucher_type = ? AND voucher_no = ? AND voucher_detail_no = ?",
			string(ref.VoucherType), ref.VoucherNo, ref.VoucherDetailNo).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(entryModels), nil
}

// Save creates or updates an entry
func (r *GormStockReservationEntryRepository) Save(ctx context.Context, entry *stock.StockReservationEntry) error {
	model := models.StockReservationEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an entry
func (r *GormStockReservationEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StockReservationEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumReservedQty returns SUM(reserved_qty) over the line's entries in docStatus, zero when none match
func (r *GormStockReservationEntryRepository) SumReservedQty(ctx context.Context, ref stock.VoucherLineRef, docStatus stock.DocStatus) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.StockReservationEntryModel{}).
		Select("COALESCE(SUM(reserved_qty), 0) as total").
		Where("voucher_type = ? AND voucher_no = ? AND voucher_detail_no = ? AND docstatus = ?",
			string(ref.VoucherType), ref.VoucherNo, ref.VoucherDetailNo, int(docStatus)).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SetStatus writes the status column without running hooks or touching other columns
func (r *GormStockReservationEntryRepository) SetStatus(ctx context.Context, id uuid.UUID, status stock.ReservationStatus, touchModified bool) error {
	updates := map[string]interface{}{"status": string(status)}
	if touchModified {
		updates["updated_at"] = time.Now()
	}
	result := r.db.WithContext(ctx).
		Model(&models.StockReservationEntryModel{}).
		Where("id = ?", id).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainEntries(entryModels []models.StockReservationEntryModel) []stock.StockReservationEntry {
	entries := make([]stock.StockReservationEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries
}

// Ensure GormStockReservationEntryRepository implements StockReservationEntryRepository
var _ stock.StockReservationEntryRepository = (*GormStockReservationEntryRepository)(nil)
