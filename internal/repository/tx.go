package repository

import (
	"context"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Tx defines the interface for transactional operations. All mutating game
// flows (claims, trades, crafting, packs, rewards) run through one of these
// so their ledger effects commit or roll back together.
type Tx interface {
	// GetUserForUpdate locks the user row for the rest of the transaction.
	GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error)

	CreditCoins(ctx context.Context, userID, amount int64) error
	// DebitCoins fails with domain.ErrInsufficientFunds when the balance
	// would go negative; the balance check and decrement are one statement.
	DebitCoins(ctx context.Context, userID, amount int64) error

	// AddXP adds delta and returns the new total.
	AddXP(ctx context.Context, userID int64, delta int64) (int64, error)
	// PromoteLevel raises the cached level; a lower value never overwrites
	// a higher one.
	PromoteLevel(ctx context.Context, userID int64, level int) error

	// AddItem upserts an inventory row and reports whether this was the
	// user's first copy of the item.
	AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error)
	// RemoveItem fails with domain.ErrInsufficientQuantity when the user
	// holds fewer than quantity copies; rows reaching zero are deleted.
	RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error

	SetCooldown(ctx context.Context, userID int64, action string, timestamp time.Time) error
	IncrementCardsCollected(ctx context.Context, userID int64, n int) error
	IncrementPacksOpened(ctx context.Context, userID int64) error

	// ClaimLatestSpawn atomically claims the newest unclaimed spawn in the
	// guild for userID. Returns domain.ErrNothingToCatch when every spawn
	// is already claimed.
	ClaimLatestSpawn(ctx context.Context, guildID, userID int64, now time.Time) (*domain.Spawn, error)

	GetTradeForUpdate(ctx context.Context, tradeID int64) (*domain.Trade, error)
	GetTradeLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error)
	UpsertTradeLine(ctx context.Context, line domain.TradeLine) error
	ReduceTradeLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error
	// ResetTradeLocks clears both lock timestamps and confirmations after
	// an offer change.
	ResetTradeLocks(ctx context.Context, tradeID int64) error
	SetTradeLock(ctx context.Context, tradeID int64, initiator bool, timestamp time.Time) error
	SetTradeConfirmed(ctx context.Context, tradeID int64, initiator bool) error
	SetTradeStatus(ctx context.Context, tradeID int64, status domain.TradeStatus) error
	// ClearTradeParticipants frees both users for new trades; called on
	// every terminal transition.
	ClearTradeParticipants(ctx context.Context, tradeID int64) error

	// RecordPuzzleCompletion bumps the completion counter and returns the
	// new times-completed value.
	RecordPuzzleCompletion(ctx context.Context, userID int64, puzzleID int) (int, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
