package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brainphreak/GPKdex-discord-bot/internal/database"
	"github.com/brainphreak/GPKdex-discord-bot/internal/database/postgres"
	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// setupTestRepo starts a disposable Postgres container, applies migrations
// and returns a ready repository.
func setupTestRepo(t *testing.T) (*postgres.Repository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(15*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, connStr))

	pool, err := database.NewPool(connStr, 20, 30*time.Minute, time.Hour)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return postgres.NewRepository(pool), pool
}

// seedCard inserts a minimal card into the catalog and returns its item ID.
func seedCard(t *testing.T, repo *postgres.Repository, category string, ordinal int) int {
	t.Helper()
	id, err := repo.UpsertItem(context.Background(), domain.Item{
		Kind:         domain.KindCard,
		Category:     category,
		Ordinal:      ordinal,
		Variant:      domain.VariantA,
		RarityWeight: 1,
	})
	require.NoError(t, err)
	return id
}

// seedUser ensures a user row exists.
func seedUser(t *testing.T, repo *postgres.Repository, userID int64) {
	t.Helper()
	_, err := repo.EnsureUser(context.Background(), userID)
	require.NoError(t, err)
}
