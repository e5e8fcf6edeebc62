package repository

import (
	"context"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Guild defines the interface for per-guild spawn pacing state
type Guild interface {
	GetSettings(ctx context.Context, guildID int64) (*domain.GuildSettings, error)
	UpsertSettings(ctx context.Context, settings domain.GuildSettings) error
	TouchActivity(ctx context.Context, guildID int64, timestamp time.Time) error
	// TryMarkSpawned advances last_spawn_at iff the cooldown has elapsed,
	// so only one of several racing processes wins the spawn slot.
	TryMarkSpawned(ctx context.Context, guildID int64, now time.Time, cooldown time.Duration) (bool, error)
}
