package testutil

import (
	"context"
	"os"
	"testing"

	"gamerit/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const defaultPostgresImage = "postgres:16-alpine"

// TestDatabase is a migrated Postgres running in a throwaway container
type TestDatabase struct {
	DB  *database.DB
	URL string
}

// SetupTestDatabase starts Postgres, applies the schema and opens a pool.
// Container and pool are released by t.Cleanup. Skipped under -short.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}

	image := os.Getenv("GAMERIT_TEST_POSTGRES_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("gamerit_test"),
		postgres.WithUsername("gamerit"),
		postgres.WithPassword("gamerit"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"gamerit.test": t.Name()}),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(url))

	db, err := database.NewConnection(ctx, url, database.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &TestDatabase{DB: db, URL: url}
}
