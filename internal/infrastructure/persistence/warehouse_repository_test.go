package persistence

import (
	"context"
	"testing"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormWarehouseRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWarehouseRepository(db)
	ctx := context.Background()

	wh := seedWarehouse(t, db, "Stores - A", "Acme")

	found, err := repo.FindByCode(ctx, "Stores - A")
	require.NoError(t, err)
	assert.Equal(t, wh.ID, found.ID)
	assert.Equal(t, "Acme", found.Company)
	assert.False(t, found.IsDisabled())

	require.NoError(t, found.Disable())
	require.NoError(t, repo.Save(ctx, found))
	found, err = repo.FindByCode(ctx, "Stores - A")
	require.NoError(t, err)
	assert.True(t, found.IsDisabled())

	_, err = repo.FindByCode(ctx, "Nowhere")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
