package repository

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// User defines the interface for user and inventory persistence
type User interface {
	// EnsureUser creates the user row on first reference and returns it.
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	CreditCoins(ctx context.Context, userID, amount int64) error
	DebitCoins(ctx context.Context, userID, amount int64) error

	GetInventory(ctx context.Context, userID int64) ([]domain.InventoryEntry, error)
	GetInventoryEntry(ctx context.Context, userID int64, itemID int) (*domain.InventoryEntry, error)
	AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error)
	RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error

	// TopCollectors returns users ordered by distinct cards owned, then XP.
	TopCollectors(ctx context.Context, limit int) ([]domain.CollectorRank, error)

	BeginTx(ctx context.Context) (Tx, error)
}
