package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

const spawnColumns = `spawn_id, guild_id, channel_id, item_id, batch_id::text, spawned_at, claimed_by, claimed_at`

func scanSpawn(row pgx.Row) (*domain.Spawn, error) {
	var s domain.Spawn
	err := row.Scan(&s.ID, &s.GuildID, &s.ChannelID, &s.ItemID, &s.BatchID,
		&s.SpawnedAt, &s.ClaimedBy, &s.ClaimedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSpawn inserts a solo spawn. The partial unique index on unclaimed
// solo spawns turns a second concurrent spawn into ErrSpawnConflict.
func (r *Repository) CreateSpawn(ctx context.Context, spawn *domain.Spawn) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO spawns (guild_id, channel_id, item_id, spawned_at)
		VALUES ($1, $2, $3, $4)
		RETURNING spawn_id
	`, spawn.GuildID, spawn.ChannelID, spawn.ItemID, spawn.SpawnedAt).Scan(&spawn.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == PgErrorCodeUniqueViolation {
			return domain.ErrSpawnConflict
		}
		return fmt.Errorf("failed to create spawn: %w", err)
	}
	return nil
}

// CreateSpawnBatch inserts a mass-spawn burst atomically
func (r *Repository) CreateSpawnBatch(ctx context.Context, spawns []*domain.Spawn) error {
	if len(spawns) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, spawn := range spawns {
		err := tx.QueryRow(ctx, `
			INSERT INTO spawns (guild_id, channel_id, item_id, batch_id, spawned_at)
			VALUES ($1, $2, $3, $4::uuid, $5)
			RETURNING spawn_id
		`, spawn.GuildID, spawn.ChannelID, spawn.ItemID, spawn.BatchID, spawn.SpawnedAt).Scan(&spawn.ID)
		if err != nil {
			return fmt.Errorf("failed to create spawn batch: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

// GetSpawn fetches one spawn by ID
func (r *Repository) GetSpawn(ctx context.Context, spawnID int64) (*domain.Spawn, error) {
	s, err := scanSpawn(r.db.QueryRow(ctx,
		`SELECT `+spawnColumns+` FROM spawns WHERE spawn_id = $1`, spawnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNothingToCatch
		}
		return nil, fmt.Errorf("failed to get spawn: %w", err)
	}
	return s, nil
}

// CountUnclaimed returns how many unclaimed spawns a guild holds
func (r *Repository) CountUnclaimed(ctx context.Context, guildID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM spawns WHERE guild_id = $1 AND claimed_by IS NULL`,
		guildID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unclaimed spawns: %w", err)
	}
	return n, nil
}

// claimLatestSpawn claims the newest unclaimed spawn for userID. SKIP LOCKED
// lets racing claimers fall through to the next spawn of a burst instead of
// queueing on one row; with a single solo spawn the loser finds nothing.
func claimLatestSpawn(ctx context.Context, q querier, guildID, userID int64, now time.Time) (*domain.Spawn, error) {
	s, err := scanSpawn(q.QueryRow(ctx, `
		UPDATE spawns SET claimed_by = $2, claimed_at = $3
		WHERE spawn_id = (
			SELECT spawn_id FROM spawns
			WHERE guild_id = $1 AND claimed_by IS NULL
			ORDER BY spawned_at DESC, spawn_id DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND claimed_by IS NULL
		RETURNING `+spawnColumns,
		guildID, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNothingToCatch
		}
		return nil, fmt.Errorf("failed to claim spawn: %w", err)
	}
	return s, nil
}
