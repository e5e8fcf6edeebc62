package domain

import "time"

// Spawn is an ephemeral claimable item posted to a guild channel. Once
// claimed it is terminal and immutable. BatchID groups the spawns of a mass
// spawn burst; solo spawns (BatchID nil) are limited to one unclaimed per
// guild by a partial unique index.
type Spawn struct {
	ID        int64      `json:"spawn_id"`
	GuildID   int64      `json:"guild_id"`
	ChannelID int64      `json:"channel_id"`
	ItemID    int        `json:"item_id"`
	BatchID   *string    `json:"batch_id,omitempty"`
	SpawnedAt time.Time  `json:"spawned_at"`
	ClaimedBy *int64     `json:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// Claimed reports whether the spawn has reached its terminal state.
func (s Spawn) Claimed() bool { return s.ClaimedBy != nil }

// GuildSettings is the persisted per-guild spawn pacing state. Keeping
// last_activity_at in the store rather than process memory keeps multiple
// service instances consistent.
type GuildSettings struct {
	GuildID        int64      `json:"guild_id"`
	SpawnChannelID *int64     `json:"spawn_channel_id,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	LastSpawnAt    *time.Time `json:"last_spawn_at,omitempty"`
}
