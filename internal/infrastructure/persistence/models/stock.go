package models

import (
	"time"

	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// StockReservationEntryModel is the persistence model for the StockReservationEntry aggregate.
type StockReservationEntryModel struct {
	AggregateModel
	ItemCode        string                  `gorm:"type:varchar(140);not null;index"`
	Warehouse       string                  `gorm:"type:varchar(140);not null;index"`
	StockUOM        string                  `gorm:"column:stock_uom;type:varchar(140);not null"`
	PostingDate     time.Time               `gorm:"type:date"`
	PostingTime     string                  `gorm:"type:varchar(20)"`
	VoucherType     string                  `gorm:"type:varchar(140);not null;index:idx_sre_voucher_line,priority:1"`
	VoucherNo       string                  `gorm:"type:varchar(140);not null;index:idx_sre_voucher_line,priority:2"`
	VoucherDetailNo string                  `gorm:"type:varchar(140);not null;index:idx_sre_voucher_line,priority:3"`
	AvailableQty    decimal.Decimal         `gorm:"type:decimal(18,6);not null;default:0"`
	VoucherQty      decimal.Decimal         `gorm:"type:decimal(18,6);not null;default:0"`
	ReservedQty     decimal.Decimal         `gorm:"type:decimal(18,6);not null;default:0"`
	DeliveredQty    decimal.Decimal         `gorm:"type:decimal(18,6);not null;default:0"`
	Company         string                  `gorm:"type:varchar(140);not null"`
	DocStatus       int                     `gorm:"column:docstatus;not null;default:0;index:idx_sre_voucher_line,priority:4"`
	Status          stock.ReservationStatus `gorm:"type:varchar(40);not null;default:'Draft';index"`
}

// TableName returns the table name for GORM
func (StockReservationEntryModel) TableName() string {
	return "stock_reservation_entries"
}

// ToDomain converts the persistence model to a domain StockReservationEntry.
func (m *StockReservationEntryModel) ToDomain() *stock.StockReservationEntry {
	return &stock.StockReservationEntry{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ItemCode:          m.ItemCode,
		Warehouse:         m.Warehouse,
		StockUOM:          m.StockUOM,
		PostingDate:       stock.PostingDateOf(m.PostingDate),
		PostingTime:       m.PostingTime,
		VoucherType:       stock.VoucherType(m.VoucherType),
		VoucherNo:         m.VoucherNo,
		VoucherDetailNo:   m.VoucherDetailNo,
		AvailableQty:      m.AvailableQty,
		VoucherQty:        m.VoucherQty,
		ReservedQty:       m.ReservedQty,
		DeliveredQty:      m.DeliveredQty,
		Company:           m.Company,
		DocStatus:         stock.DocStatus(m.DocStatus),
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain StockReservationEntry.
func (m *StockReservationEntryModel) FromDomain(e *stock.StockReservationEntry) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.ItemCode = e.ItemCode
	m.Warehouse = e.Warehouse
	m.StockUOM = e.StockUOM
	m.PostingDate = e.PostingDate
	m.PostingTime = e.PostingTime
	m.VoucherType = string(e.VoucherType)
	m.VoucherNo = e.VoucherNo
	m.VoucherDetailNo = e.VoucherDetailNo
	m.AvailableQty = e.AvailableQty
	m.VoucherQty = e.VoucherQty
	m.ReservedQty = e.ReservedQty
	m.DeliveredQty = e.DeliveredQty
	m.Company = e.Company
	m.DocStatus = int(e.DocStatus)
	m.Status = e.Status
}

// StockReservationEntryModelFromDomain creates a new persistence model from a domain entry.
func StockReservationEntryModelFromDomain(e *stock.StockReservationEntry) *StockReservationEntryModel {
	m := &StockReservationEntryModel{}
	m.FromDomain(e)
	return m
}
