// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: base persistence models (BaseModel, AggregateModel)
//   - stock.go: stock reservation entries
//   - partner.go: warehouses
//   - voucher.go: voucher line tables carrying the mirrored stock_reserved_qty field
package models
