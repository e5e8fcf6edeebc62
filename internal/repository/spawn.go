package repository

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Spawn defines the interface for spawn persistence
type Spawn interface {
	// CreateSpawn inserts a solo spawn. Returns domain.ErrSpawnConflict when
	// the guild already has an unclaimed solo spawn.
	CreateSpawn(ctx context.Context, spawn *domain.Spawn) error
	// CreateSpawnBatch inserts a mass-spawn burst sharing one batch ID.
	CreateSpawnBatch(ctx context.Context, spawns []*domain.Spawn) error
	GetSpawn(ctx context.Context, spawnID int64) (*domain.Spawn, error)
	CountUnclaimed(ctx context.Context, guildID int64) (int, error)

	BeginTx(ctx context.Context) (Tx, error)
}
