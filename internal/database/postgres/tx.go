package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Tx implements repository.Tx on top of a pgx transaction
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

// Rollback rolls back the transaction
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return errors.New(domain.ErrMsgTxClosed)
		}
		return err
	}
	return nil
}

// GetUserForUpdate locks and returns the user row
func (t *Tx) GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error) {
	return getUser(ctx, t.tx, userID, true)
}

// CreditCoins adds coins within the transaction
func (t *Tx) CreditCoins(ctx context.Context, userID, amount int64) error {
	return creditCoins(ctx, t.tx, userID, amount)
}

// DebitCoins removes coins within the transaction
func (t *Tx) DebitCoins(ctx context.Context, userID, amount int64) error {
	return debitCoins(ctx, t.tx, userID, amount)
}

// AddXP adds XP within the transaction and returns the new total
func (t *Tx) AddXP(ctx context.Context, userID int64, delta int64) (int64, error) {
	return addXP(ctx, t.tx, userID, delta)
}

// PromoteLevel raises the cached level within the transaction
func (t *Tx) PromoteLevel(ctx context.Context, userID int64, level int) error {
	return promoteLevel(ctx, t.tx, userID, level)
}

// AddItem adds item copies within the transaction
func (t *Tx) AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error) {
	return addItem(ctx, t.tx, userID, itemID, quantity)
}

// RemoveItem removes item copies within the transaction
func (t *Tx) RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error {
	return removeItem(ctx, t.tx, userID, itemID, quantity)
}

// SetCooldown records an action timestamp within the transaction
func (t *Tx) SetCooldown(ctx context.Context, userID int64, action string, timestamp time.Time) error {
	return setCooldown(ctx, t.tx, userID, action, timestamp)
}

// IncrementCardsCollected bumps the lifetime card counter
func (t *Tx) IncrementCardsCollected(ctx context.Context, userID int64, n int) error {
	return incrementCardsCollected(ctx, t.tx, userID, n)
}

// IncrementPacksOpened bumps the lifetime pack counter
func (t *Tx) IncrementPacksOpened(ctx context.Context, userID int64) error {
	return incrementPacksOpened(ctx, t.tx, userID)
}

// ClaimLatestSpawn claims the newest unclaimed spawn for the user
func (t *Tx) ClaimLatestSpawn(ctx context.Context, guildID, userID int64, now time.Time) (*domain.Spawn, error) {
	return claimLatestSpawn(ctx, t.tx, guildID, userID, now)
}

// GetTradeForUpdate locks and returns the trade row
func (t *Tx) GetTradeForUpdate(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	trade, err := scanTrade(t.tx.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE trade_id = $1 FOR UPDATE`, tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade for update: %w", err)
	}
	return trade, nil
}

// GetTradeLines returns the trade's offered stacks
func (t *Tx) GetTradeLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error) {
	return getTradeLines(ctx, t.tx, tradeID)
}

// UpsertTradeLine writes one offered stack, replacing any prior quantity
func (t *Tx) UpsertTradeLine(ctx context.Context, line domain.TradeLine) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO trade_lines (trade_id, user_id, item_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trade_id, user_id, item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`, line.TradeID, line.UserID, line.ItemID, line.Quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert trade line: %w", err)
	}
	return nil
}

// ReduceTradeLine withdraws copies from one offered stack, clamping at zero.
// A missing line or over-removal is not an error; the line just goes away.
func (t *Tx) ReduceTradeLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE trade_lines SET quantity = quantity - $4
		WHERE trade_id = $1 AND user_id = $2 AND item_id = $3
	`, tradeID, userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to reduce trade line: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		DELETE FROM trade_lines
		WHERE trade_id = $1 AND user_id = $2 AND item_id = $3 AND quantity <= 0
	`, tradeID, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete exhausted trade line: %w", err)
	}
	return nil
}

// ResetTradeLocks clears locks and confirmations after an offer change
func (t *Tx) ResetTradeLocks(ctx context.Context, tradeID int64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE trades
		SET initiator_locked_at = NULL, partner_locked_at = NULL,
			initiator_confirmed = FALSE, partner_confirmed = FALSE,
			status = $2, updated_at = now()
		WHERE trade_id = $1
	`, tradeID, domain.TradeActive)
	if err != nil {
		return fmt.Errorf("failed to reset trade locks: %w", err)
	}
	return nil
}

// SetTradeLock records one side's lock timestamp
func (t *Tx) SetTradeLock(ctx context.Context, tradeID int64, initiator bool, timestamp time.Time) error {
	col := "partner_locked_at"
	if initiator {
		col = "initiator_locked_at"
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE trades SET `+col+` = $2, updated_at = now() WHERE trade_id = $1`,
		tradeID, timestamp)
	if err != nil {
		return fmt.Errorf("failed to set trade lock: %w", err)
	}
	return nil
}

// SetTradeConfirmed records one side's execution confirmation
func (t *Tx) SetTradeConfirmed(ctx context.Context, tradeID int64, initiator bool) error {
	col := "partner_confirmed"
	if initiator {
		col = "initiator_confirmed"
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE trades SET `+col+` = TRUE, updated_at = now() WHERE trade_id = $1`,
		tradeID)
	if err != nil {
		return fmt.Errorf("failed to set trade confirmation: %w", err)
	}
	return nil
}

// SetTradeStatus moves the trade to a new state
func (t *Tx) SetTradeStatus(ctx context.Context, tradeID int64, status domain.TradeStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE trades SET status = $2, updated_at = now() WHERE trade_id = $1`,
		tradeID, status)
	if err != nil {
		return fmt.Errorf("failed to set trade status: %w", err)
	}
	return nil
}

// ClearTradeParticipants frees both users for new trades
func (t *Tx) ClearTradeParticipants(ctx context.Context, tradeID int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM trade_participants WHERE trade_id = $1`, tradeID)
	if err != nil {
		return fmt.Errorf("failed to clear trade participants: %w", err)
	}
	return nil
}

// RecordPuzzleCompletion bumps the completion counter
func (t *Tx) RecordPuzzleCompletion(ctx context.Context, userID int64, puzzleID int) (int, error) {
	return recordPuzzleCompletion(ctx, t.tx, userID, puzzleID)
}
