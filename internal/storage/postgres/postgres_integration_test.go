//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/storagetest"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("students"),
		tcpostgres.WithUsername("students"),
		tcpostgres.WithPassword("students"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	cfg := &config.Config{Storage: config.Storage{Driver: config.DriverPostgres, DSN: startPostgres(t), MaxConns: 4}}

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		ctx := context.Background()
		store, err := New(ctx, cfg)
		require.NoError(t, err)

		_, err = store.pool.Exec(ctx, "TRUNCATE students RESTART IDENTITY")
		require.NoError(t, err)
		return store
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	dsn := startPostgres(t)
	require.NoError(t, Migrate(dsn))
	require.NoError(t, Migrate(dsn))
}
