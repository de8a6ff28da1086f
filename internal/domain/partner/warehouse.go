package partner

import (
	"strings"
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is the stock location master referenced by reservation entries.
// Entries refer to a warehouse by Code.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code    string
	Name    string
	Company string
	Status  WarehouseStatus
}

// NewWarehouse creates a new active warehouse owned by company
func NewWarehouse(code, name, company string) (*Warehouse, error) {
	if err := validateWarehouseCode(code); err != nil {
		return nil, err
	}
	if err := validateWarehouseName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(company) == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Warehouse company cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Company:           company,
		Status:            WarehouseStatusActive,
	}, nil
}

// Enable enables the warehouse (makes it active)
func (w *Warehouse) Enable() error {
	if w.Status == WarehouseStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Warehouse is already active")
	}
	w.Status = WarehouseStatusActive
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}

// Disable disables the warehouse. Disabled warehouses cannot take new reservations.
func (w *Warehouse) Disable() error {
	if w.Status == WarehouseStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Warehouse is already inactive")
	}
	w.Status = WarehouseStatusInactive
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}

// IsDisabled returns true if the warehouse is inactive
func (w *Warehouse) IsDisabled() bool {
	return w.Status == WarehouseStatusInactive
}

// BelongsTo reports whether the warehouse is owned by company
func (w *Warehouse) BelongsTo(company string) bool {
	return w.Company == company
}

func validateWarehouseCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if len(code) > 140 {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot exceed 140 characters")
	}
	return nil
}

func validateWarehouseName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot exceed 200 characters")
	}
	return nil
}
