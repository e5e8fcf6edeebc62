// Package ledger exposes the user-facing balance views and the admin-level
// coin and item mutations that don't belong to any game flow.
package ledger

import (
	"context"
	"fmt"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

// Repository defines the interface for data access required by the ledger service
type Repository interface {
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	GetInventory(ctx context.Context, userID int64) ([]domain.InventoryEntry, error)
	GetItemsByIDs(ctx context.Context, ids []int) ([]domain.Item, error)
	CreditCoins(ctx context.Context, userID, amount int64) error
	BeginTx(ctx context.Context) (repository.Tx, error)
}

// InventoryLine is an inventory entry joined with its catalog item.
type InventoryLine struct {
	Item     domain.Item `json:"item"`
	Quantity int         `json:"quantity"`
}

// Service defines the interface for ledger operations
type Service interface {
	// Profile returns the user row, creating it on first reference.
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	Inventory(ctx context.Context, userID int64) ([]InventoryLine, error)
	// Credit adds coins to the user's balance. Amount must be positive.
	Credit(ctx context.Context, userID, amount int64) error
	// Debit removes coins, failing with domain.ErrInsufficientFunds when the
	// balance would go negative.
	Debit(ctx context.Context, userID, amount int64) error
	// GiveItem transfers quantity copies of an item between users. The
	// sender's removal and receiver's addition commit together.
	GiveItem(ctx context.Context, fromID, toID int64, itemID, quantity int) error
}

type service struct {
	repo Repository
}

// NewService creates a new ledger service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.EnsureUser(ctx, userID)
}

func (s *service) Inventory(ctx context.Context, userID int64) ([]InventoryLine, error) {
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	entries, err := s.repo.GetInventory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	if len(entries) == 0 {
		return []InventoryLine{}, nil
	}

	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ItemID
	}
	items, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inventory items: %w", err)
	}
	byID := make(map[int]domain.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	lines := make([]InventoryLine, 0, len(entries))
	for _, e := range entries {
		item, ok := byID[e.ItemID]
		if !ok {
			// Orphaned row from a catalog edit; skip rather than fail the view.
			logger.FromContext(ctx).Warn("Inventory entry with no catalog item",
				"user_id", userID, "item_id", e.ItemID)
			continue
		}
		lines = append(lines, InventoryLine{Item: item, Quantity: e.Quantity})
	}
	return lines, nil
}

func (s *service) Credit(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive: %w", domain.ErrInvalidInput)
	}
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	if err := s.repo.CreditCoins(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to credit coins: %w", err)
	}
	logger.FromContext(ctx).Info("Coins credited", "user_id", userID, "amount", amount)
	return nil
}

func (s *service) Debit(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive: %w", domain.ErrInvalidInput)
	}
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.DebitCoins(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to debit coins: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	logger.FromContext(ctx).Info("Coins debited", "user_id", userID, "amount", amount)
	return nil
}

func (s *service) GiveItem(ctx context.Context, fromID, toID int64, itemID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}
	if fromID == toID {
		return fmt.Errorf("cannot give items to yourself: %w", domain.ErrInvalidInput)
	}
	if _, err := s.repo.EnsureUser(ctx, fromID); err != nil {
		return fmt.Errorf("failed to ensure sender: %w", err)
	}
	if _, err := s.repo.EnsureUser(ctx, toID); err != nil {
		return fmt.Errorf("failed to ensure receiver: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.RemoveItem(ctx, fromID, itemID, quantity); err != nil {
		return fmt.Errorf("failed to remove item from sender: %w", err)
	}
	if _, err := tx.AddItem(ctx, toID, itemID, quantity); err != nil {
		return fmt.Errorf("failed to add item to receiver: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	logger.FromContext(ctx).Info("Item transferred",
		"from_user_id", fromID, "to_user_id", toID, "item_id", itemID, "quantity", quantity)
	return nil
}
