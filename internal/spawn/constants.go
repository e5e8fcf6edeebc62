package spawn

import (
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/selector"
)

// Spawn pacing and rewards. Values mirror the live game balance.
const (
	// SpawnCooldown is the minimum gap between activity-driven spawns per
	// guild.
	SpawnCooldown = 15 * time.Minute

	massSpawnChance  = 0.05
	pieceSpawnChance = 0.05

	catchBaseCoins  = 50
	catchLevelBonus = 10
	catchXP         = 10
	newCardXP       = 20
	newCardCoins    = 200
	pieceXP         = 5

	bVariantMultiplier = 2
)

// massSpawnSizes weights the burst size of a mass spawn.
var massSpawnSizes = []selector.Entry[int]{
	{Value: 3, Weight: 70},
	{Value: 4, Weight: 25},
	{Value: 5, Weight: 5},
}

// Log message constants
const (
	LogMsgSpawnCreated     = "Spawn created"
	LogMsgMassSpawnCreated = "Mass spawn created"
	LogMsgSpawnClaimed     = "Spawn claimed"
	LogMsgSpawnSlotTaken   = "Spawn slot already taken"
)
