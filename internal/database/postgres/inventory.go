package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// addItem upserts an inventory row. The (xmax = 0) trick reports whether the
// row was freshly inserted, i.e. the user's first copy of this item.
func addItem(ctx context.Context, q querier, userID int64, itemID, quantity int) (bool, error) {
	var firstCopy bool
	err := q.QueryRow(ctx, `
		INSERT INTO inventory (user_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity
		RETURNING (xmax = 0)
	`, userID, itemID, quantity).Scan(&firstCopy)
	if err != nil {
		return false, fmt.Errorf("failed to add item: %w", err)
	}
	return firstCopy, nil
}

// removeItem decrements or deletes the inventory row in one statement. The
// two branches are mutually exclusive on quantity, so exactly one fires when
// the user holds enough copies and neither fires otherwise.
func removeItem(ctx context.Context, q querier, userID int64, itemID, quantity int) error {
	var touched int
	err := q.QueryRow(ctx, `
		WITH decremented AS (
			UPDATE inventory SET quantity = quantity - $3
			WHERE user_id = $1 AND item_id = $2 AND quantity > $3
			RETURNING 1
		), emptied AS (
			DELETE FROM inventory
			WHERE user_id = $1 AND item_id = $2 AND quantity = $3
			RETURNING 1
		)
		SELECT (SELECT count(*) FROM decremented) + (SELECT count(*) FROM emptied)
	`, userID, itemID, quantity).Scan(&touched)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if touched == 0 {
		return domain.ErrInsufficientQuantity
	}
	return nil
}

func getInventory(ctx context.Context, q querier, userID int64) ([]domain.InventoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT user_id, item_id, quantity, first_obtained
		FROM inventory
		WHERE user_id = $1
		ORDER BY item_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	entries := []domain.InventoryEntry{}
	for rows.Next() {
		var e domain.InventoryEntry
		if err := rows.Scan(&e.UserID, &e.ItemID, &e.Quantity, &e.FirstObtained); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return entries, nil
}

// GetInventory returns all inventory rows for a user
func (r *Repository) GetInventory(ctx context.Context, userID int64) ([]domain.InventoryEntry, error) {
	return getInventory(ctx, r.db, userID)
}

// GetInventoryEntry returns one inventory row, or nil if the user holds none
func (r *Repository) GetInventoryEntry(ctx context.Context, userID int64, itemID int) (*domain.InventoryEntry, error) {
	var e domain.InventoryEntry
	err := r.db.QueryRow(ctx, `
		SELECT user_id, item_id, quantity, first_obtained
		FROM inventory
		WHERE user_id = $1 AND item_id = $2
	`, userID, itemID).Scan(&e.UserID, &e.ItemID, &e.Quantity, &e.FirstObtained)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inventory entry: %w", err)
	}
	return &e, nil
}

// AddItem adds copies of an item to a user's inventory
func (r *Repository) AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error) {
	return addItem(ctx, r.db, userID, itemID, quantity)
}

// RemoveItem removes copies of an item from a user's inventory
func (r *Repository) RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error {
	return removeItem(ctx, r.db, userID, itemID, quantity)
}
