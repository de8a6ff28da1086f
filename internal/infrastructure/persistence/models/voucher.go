package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherLineModel holds the columns every voucher line table shares.
// Lines are owned by their voucher documents; this service only reads them
// and maintains StockReservedQty.
type VoucherLineModel struct {
	Name             string          `gorm:"column:name;type:varchar(140);primaryKey"`
	Parent           string          `gorm:"column:parent;type:varchar(140);not null;index"`
	ItemCode         string          `gorm:"type:varchar(140);not null"`
	Warehouse        string          `gorm:"type:varchar(140)"`
	StockQty         decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	StockReservedQty decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// SalesOrderItemModel is a line of a sales order
type SalesOrderItemModel struct {
	VoucherLineModel
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// StockTransferItemModel is a line of a stock transfer
type StockTransferItemModel struct {
	VoucherLineModel
}

// TableName returns the table name for GORM
func (StockTransferItemModel) TableName() string {
	return "stock_transfer_items"
}
