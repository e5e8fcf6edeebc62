package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

const tradeColumns = `trade_id, initiator_id, partner_id, guild_id, status,
	initiator_locked_at, partner_locked_at, initiator_confirmed, partner_confirmed,
	created_at, updated_at`

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(&t.ID, &t.InitiatorID, &t.PartnerID, &t.GuildID, &t.Status,
		&t.InitiatorLockedAt, &t.PartnerLockedAt, &t.InitiatorConfirmed, &t.PartnerConfirmed,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func getTradeLines(ctx context.Context, q querier, tradeID int64) ([]domain.TradeLine, error) {
	rows, err := q.Query(ctx, `
		SELECT trade_id, user_id, item_id, quantity
		FROM trade_lines
		WHERE trade_id = $1
		ORDER BY user_id, item_id
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.TradeLine{}
	for rows.Next() {
		var l domain.TradeLine
		if err := rows.Scan(&l.TradeID, &l.UserID, &l.ItemID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan trade line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trade lines: %w", err)
	}
	return lines, nil
}

// CreateTrade opens a trade and reserves both participant slots. The unique
// participant key (guild_id, user_id) makes a second open trade impossible
// no matter how the calls interleave.
func (r *Repository) CreateTrade(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	trade, err := scanTrade(tx.QueryRow(ctx, `
		INSERT INTO trades (initiator_id, partner_id, guild_id)
		VALUES ($1, $2, $3)
		RETURNING `+tradeColumns,
		initiatorID, partnerID, guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trade_participants (guild_id, user_id, trade_id)
		VALUES ($1, $2, $3), ($1, $4, $3)
	`, guildID, initiatorID, trade.ID, partnerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == PgErrorCodeUniqueViolation {
			return nil, domain.ErrTradeConflict
		}
		return nil, fmt.Errorf("failed to reserve trade participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return trade, nil
}

// GetTrade fetches one trade by ID
func (r *Repository) GetTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	t, err := scanTrade(r.db.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE trade_id = $1`, tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// GetActiveTradeForUser returns the user's open trade in a guild, if any
func (r *Repository) GetActiveTradeForUser(ctx context.Context, guildID, userID int64) (*domain.Trade, error) {
	t, err := scanTrade(r.db.QueryRow(ctx, `
		SELECT `+prefixedTradeColumns+`
		FROM trades t
		JOIN trade_participants p ON p.trade_id = t.trade_id
		WHERE p.guild_id = $1 AND p.user_id = $2
	`, guildID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get active trade: %w", err)
	}
	return t, nil
}

const prefixedTradeColumns = `t.trade_id, t.initiator_id, t.partner_id, t.guild_id, t.status,
	t.initiator_locked_at, t.partner_locked_at, t.initiator_confirmed, t.partner_confirmed,
	t.created_at, t.updated_at`

// GetLines returns all offered stacks of a trade
func (r *Repository) GetLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error) {
	return getTradeLines(ctx, r.db, tradeID)
}
