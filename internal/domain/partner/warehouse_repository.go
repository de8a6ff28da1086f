package partner

import (
	"context"
)

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	// FindByCode finds a warehouse by its code
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error
}
