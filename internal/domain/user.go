package domain

import "time"

// User is a player's persistent record. Users are created on first reference
// and never deleted. Level is derived from XP via the leveling curve and
// cached here so list queries don't have to recompute it.
type User struct {
	ID                  int64      `json:"user_id"`
	Coins               int64      `json:"coins"`
	XP                  int64      `json:"xp"`
	Level               int        `json:"level"`
	TotalCardsCollected int        `json:"total_cards_collected"`
	TotalPacksOpened    int        `json:"total_packs_opened"`
	LastDaily           *time.Time `json:"last_daily,omitempty"`
	LastClaim           *time.Time `json:"last_claim,omitempty"`
	LastLeveledClaim    *time.Time `json:"last_leveled_claim,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// InventoryEntry is one (user, item) row of the ledger. Quantity is always
// positive; a row that would reach zero is deleted instead.
type InventoryEntry struct {
	UserID        int64     `json:"user_id"`
	ItemID        int       `json:"item_id"`
	Quantity      int       `json:"quantity"`
	FirstObtained time.Time `json:"first_obtained"`
}

// Cooldown action names persisted on the user row.
const (
	ActionDaily        = "daily"
	ActionClaim        = "claim"
	ActionLeveledClaim = "leveled_claim"
)
