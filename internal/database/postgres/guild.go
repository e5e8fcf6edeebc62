package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// GetSettings returns guild spawn settings; absent guilds get zero-value
// settings rather than an error.
func (r *Repository) GetSettings(ctx context.Context, guildID int64) (*domain.GuildSettings, error) {
	var s domain.GuildSettings
	err := r.db.QueryRow(ctx, `
		SELECT guild_id, spawn_channel_id, last_activity_at, last_spawn_at
		FROM guild_settings WHERE guild_id = $1
	`, guildID).Scan(&s.GuildID, &s.SpawnChannelID, &s.LastActivityAt, &s.LastSpawnAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.GuildSettings{GuildID: guildID}, nil
		}
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return &s, nil
}

// UpsertSettings writes guild spawn settings
func (r *Repository) UpsertSettings(ctx context.Context, settings domain.GuildSettings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, spawn_channel_id, last_activity_at, last_spawn_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id)
		DO UPDATE SET spawn_channel_id = EXCLUDED.spawn_channel_id,
			last_activity_at = EXCLUDED.last_activity_at,
			last_spawn_at = EXCLUDED.last_spawn_at
	`, settings.GuildID, settings.SpawnChannelID, settings.LastActivityAt, settings.LastSpawnAt)
	if err != nil {
		return fmt.Errorf("failed to upsert guild settings: %w", err)
	}
	return nil
}

// TouchActivity records guild activity used to gate organic spawns
func (r *Repository) TouchActivity(ctx context.Context, guildID int64, timestamp time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, last_activity_at)
		VALUES ($1, $2)
		ON CONFLICT (guild_id)
		DO UPDATE SET last_activity_at = EXCLUDED.last_activity_at
	`, guildID, timestamp)
	if err != nil {
		return fmt.Errorf("failed to touch guild activity: %w", err)
	}
	return nil
}

// TryMarkSpawned advances last_spawn_at only when the cooldown has elapsed.
// The condition lives in the statement, so concurrent callers cannot both
// win the spawn slot.
func (r *Repository) TryMarkSpawned(ctx context.Context, guildID int64, now time.Time, cooldown time.Duration) (bool, error) {
	threshold := now.Add(-cooldown)
	tag, err := r.db.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, last_spawn_at)
		VALUES ($1, $2)
		ON CONFLICT (guild_id)
		DO UPDATE SET last_spawn_at = $2
		WHERE guild_settings.last_spawn_at IS NULL OR guild_settings.last_spawn_at <= $3
	`, guildID, now, threshold)
	if err != nil {
		return false, fmt.Errorf("failed to mark guild spawned: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
