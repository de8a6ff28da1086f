package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/stockreservation/internal/domain/shared"
)

// WarehouseGuard checks that a warehouse may hold reservations for a company
type WarehouseGuard struct {
	repo WarehouseRepository
}

// NewWarehouseGuard creates a WarehouseGuard
func NewWarehouseGuard(repo WarehouseRepository) *WarehouseGuard {
	return &WarehouseGuard{repo: repo}
}

// ValidateDisabledWarehouse fails when the warehouse is disabled or unknown
func (g *WarehouseGuard) ValidateDisabledWarehouse(ctx context.Context, code string) error {
	w, err := g.load(ctx, code)
	if err != nil {
		return err
	}
	if w.IsDisabled() {
		return shared.NewValidationError(shared.ValidationKindDisabledWarehouse, "warehouse",
			fmt.Sprintf("Warehouse %s is disabled", code))
	}
	return nil
}

// ValidateWarehouseCompany fails when the warehouse belongs to another company
func (g *WarehouseGuard) ValidateWarehouseCompany(ctx context.Context, code, company string) error {
	w, err := g.load(ctx, code)
	if err != nil {
		return err
	}
	if !w.BelongsTo(company) {
		return shared.NewValidationError(shared.ValidationKindWarehouseCompanyMismatch, "warehouse",
			fmt.Sprintf("Warehouse %s does not belong to company %s", code, company))
	}
	return nil
}

func (g *WarehouseGuard) load(ctx context.Context, code string) (*Warehouse, error) {
	w, err := g.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(shared.ValidationKindUnknownWarehouse, "warehouse",
				fmt.Sprintf("Warehouse %s not found", code))
		}
		return nil, shared.NewPersistenceError("find_warehouse", err)
	}
	return w, nil
}
