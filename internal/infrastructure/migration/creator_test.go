package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add reservation index", "add_reservation_index"},
		{"Add-Reservation-Index", "add_reservation_index"},
		{"ADD__DELIVERED_QTY", "add_delivered_qty"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.up.sql"), []byte("--"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.down.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "add delivered qty", "Track deliveries per entry")
	require.NoError(t, err)

	assert.Equal(t, "000002", mf.Version)
	assert.Equal(t, "000002_add_delivered_qty.up.sql", filepath.Base(mf.UpPath))
	assert.Equal(t, "000002_add_delivered_qty.down.sql", filepath.Base(mf.DownPath))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Track deliveries per entry")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})

	t.Run("creates missing directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")
		mf, err := CreateMigration(nested, "init", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", mf.Version)
	})
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":   {Data: []byte("--")},
		"000002_add_index.down.sql": {Data: []byte("--")},
		"000001_init.up.sql":        {Data: []byte("--")},
		"000001_init.down.sql":      {Data: []byte("--")},
		"README.md":                 {Data: []byte("docs")},
		"subdir.up.sql/x":           {Data: []byte("--")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_index"}, names)

	next, err := NextVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	names, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := ListMigrations(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		down, err := Embedded().Open(name + ".down.sql")
		require.NoError(t, err, "missing rollback for %s", name)
		_ = down.Close()
	}

	up, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", names[0]+".up.sql"))
	require.NoError(t, err)
	for _, table := range []string{"stock_reservation_entries", "sales_order_items", "stock_transfer_items", "warehouses", "idx_sre_voucher_line"} {
		assert.True(t, strings.Contains(string(up), table), "schema lacks %s", table)
	}
}
