package models

import (
	"github.com/erp/stockreservation/internal/domain/partner"
)

// WarehouseModel is the persistence model for the Warehouse domain entity.
type WarehouseModel struct {
	AggregateModel
	Code    string                  `gorm:"type:varchar(140);not null;uniqueIndex"`
	Name    string                  `gorm:"type:varchar(200);not null"`
	Company string                  `gorm:"type:varchar(140);not null;index"`
	Status  partner.WarehouseStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse entity.
func (m *WarehouseModel) ToDomain() *partner.Warehouse {
	return &partner.Warehouse{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Company:           m.Company,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Warehouse entity.
func (m *WarehouseModel) FromDomain(w *partner.Warehouse) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.Code = w.Code
	m.Name = w.Name
	m.Company = w.Company
	m.Status = w.Status
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse entity.
func WarehouseModelFromDomain(w *partner.Warehouse) *WarehouseModel {
	m := &WarehouseModel{}
	m.FromDomain(w)
	return m
}
