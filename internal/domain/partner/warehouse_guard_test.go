package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*Warehouse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *Warehouse) error {
	args := m.Called(ctx, warehouse)
	return args.Error(0)
}

func TestNewWarehouse(t *testing.T) {
	w, err := NewWarehouse("WH-MAIN", "Main Warehouse", "ACME")
	require.NoError(t, err)
	assert.Equal(t, WarehouseStatusActive, w.Status)
	assert.False(t, w.IsDisabled())

	_, err = NewWarehouse("", "Main", "ACME")
	assert.Error(t, err)
	_, err = NewWarehouse("WH", "", "ACME")
	assert.Error(t, err)
	_, err = NewWarehouse("WH", "Main", " ")
	assert.Error(t, err)
}

func TestWarehouse_EnableDisable(t *testing.T) {
	w, err := NewWarehouse("WH-MAIN", "Main Warehouse", "ACME")
	require.NoError(t, err)

	assert.Error(t, w.Enable())
	require.NoError(t, w.Disable())
	assert.True(t, w.IsDisabled())
	assert.Error(t, w.Disable())
	require.NoError(t, w.Enable())
	assert.Equal(t, 3, w.GetVersion())
}

func TestWarehouseGuard(t *testing.T) {
	ctx := context.Background()
	active, _ := NewWarehouse("WH-MAIN", "Main Warehouse", "ACME")
	disabled, _ := NewWarehouse("WH-OLD", "Old Warehouse", "ACME")
	require.NoError(t, disabled.Disable())

	repo := new(MockWarehouseRepository)
	repo.On("FindByCode", ctx, "WH-MAIN").Return(active, nil)
	repo.On("FindByCode", ctx, "WH-OLD").Return(disabled, nil)
	repo.On("FindByCode", ctx, "WH-NONE").Return(nil, shared.ErrNotFound)
	repo.On("FindByCode", ctx, "WH-BROKEN").Return(nil, errors.New("connection refused"))
	guard := NewWarehouseGuard(repo)

	t.Run("active warehouse passes", func(t *testing.T) {
		assert.NoError(t, guard.ValidateDisabledWarehouse(ctx, "WH-MAIN"))
		assert.NoError(t, guard.ValidateWarehouseCompany(ctx, "WH-MAIN", "ACME"))
	})

	t.Run("disabled warehouse", func(t *testing.T) {
		err := guard.ValidateDisabledWarehouse(ctx, "WH-OLD")
		assert.True(t, shared.IsValidationError(err, shared.ValidationKindDisabledWarehouse))
		assert.EqualError(t, err, "Warehouse WH-OLD is disabled")
	})

	t.Run("company mismatch", func(t *testing.T) {
		err := guard.ValidateWarehouseCompany(ctx, "WH-MAIN", "Globex")
		assert.True(t, shared.IsValidationError(err, shared.ValidationKindWarehouseCompanyMismatch))
	})

	t.Run("unknown warehouse", func(t *testing.T) {
		err := guard.ValidateDisabledWarehouse(ctx, "WH-NONE")
		assert.True(t, shared.IsValidationError(err, shared.ValidationKindUnknownWarehouse))
	})

	t.Run("store failure is a persistence error", func(t *testing.T) {
		err := guard.ValidateDisabledWarehouse(ctx, "WH-BROKEN")
		var pe *shared.PersistenceError
		assert.ErrorAs(t, err, &pe)
	})
}
