package repository

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Trade defines the interface for trade persistence
type Trade interface {
	// CreateTrade opens a trade and reserves both participants. Returns
	// domain.ErrTradeConflict when either already has a non-terminal trade
	// in the guild.
	CreateTrade(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error)
	GetTrade(ctx context.Context, tradeID int64) (*domain.Trade, error)
	GetActiveTradeForUser(ctx context.Context, guildID, userID int64) (*domain.Trade, error)
	GetLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error)

	BeginTx(ctx context.Context) (Tx, error)
}
