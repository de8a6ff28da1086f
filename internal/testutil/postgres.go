// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/erp/stockreservation/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// PostgresDB is a throwaway PostgreSQL database with the reservation schema applied
type PostgresDB struct {
	DSN   string
	SqlDB *sql.DB
}

// NewPostgres starts a PostgreSQL container, applies the embedded migrations
// and terminates the container when the test ends. The test is skipped under
// -short or when no container runtime is reachable.
func NewPostgres(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_reservation_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := zap.NewNop()
	if os.Getenv("TEST_DB_DEBUG") != "" {
		log = zaptest.NewLogger(t)
	}
	m, err := migration.New(sqlDB, "", log)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return &PostgresDB{DSN: dsn, SqlDB: sqlDB}
}
