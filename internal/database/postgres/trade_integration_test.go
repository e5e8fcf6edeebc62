package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

func TestRepository_CreateTrade_OnePerUserPerGuild(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	seedUser(t, repo, 3)

	trade, err := repo.CreateTrade(ctx, 10, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeActive, trade.Status)

	// Either participant being busy blocks a new trade
	_, err = repo.CreateTrade(ctx, 10, 1, 3)
	assert.ErrorIs(t, err, domain.ErrTradeConflict)
	_, err = repo.CreateTrade(ctx, 10, 3, 2)
	assert.ErrorIs(t, err, domain.ErrTradeConflict)

	// Same users in another guild are free
	_, err = repo.CreateTrade(ctx, 20, 1, 2)
	require.NoError(t, err)

	// Terminal transition releases the participants
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetTradeStatus(ctx, trade.ID, domain.TradeCancelled))
	require.NoError(t, tx.ClearTradeParticipants(ctx, trade.ID))
	require.NoError(t, tx.Commit(ctx))

	_, err = repo.CreateTrade(ctx, 10, 1, 3)
	require.NoError(t, err)
}

func TestRepository_CreateTrade_Race(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	for i := int64(1); i <= 10; i++ {
		seedUser(t, repo, i)
	}

	// Everyone tries to trade with user 1 at once; only one may succeed.
	var created int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := int64(2); i <= 10; i++ {
		wg.Add(1)
		go func(partner int64) {
			defer wg.Done()
			<-start
			if _, err := repo.CreateTrade(ctx, 10, partner, 1); err == nil {
				atomic.AddInt32(&created, 1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), created)
}

func TestRepository_TradeLines(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)
	itemID := seedCard(t, repo, "os1", 1)

	trade, err := repo.CreateTrade(ctx, 10, 1, 2)
	require.NoError(t, err)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx)

	line := domain.TradeLine{TradeID: trade.ID, UserID: 1, ItemID: itemID, Quantity: 2}
	require.NoError(t, tx.UpsertTradeLine(ctx, line))

	// Re-offering replaces the quantity
	line.Quantity = 5
	require.NoError(t, tx.UpsertTradeLine(ctx, line))

	lines, err := tx.GetTradeLines(ctx, trade.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	// Partial withdrawal decrements, over-withdrawal deletes the line
	require.NoError(t, tx.ReduceTradeLine(ctx, trade.ID, 1, itemID, 2))
	lines, err = tx.GetTradeLines(ctx, trade.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	require.NoError(t, tx.ReduceTradeLine(ctx, trade.ID, 1, itemID, 10))
	lines, err = tx.GetTradeLines(ctx, trade.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Absent line is a no-op
	require.NoError(t, tx.ReduceTradeLine(ctx, trade.ID, 1, itemID, 1))

	require.NoError(t, tx.Commit(ctx))
}

func TestRepository_TradeLockBookkeeping(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)

	trade, err := repo.CreateTrade(ctx, 10, 1, 2)
	require.NoError(t, err)

	now := time.Now().Truncate(time.Millisecond)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetTradeLock(ctx, trade.ID, true, now))
	require.NoError(t, tx.SetTradeLock(ctx, trade.ID, false, now.Add(20*time.Second)))
	require.NoError(t, tx.SetTradeConfirmed(ctx, trade.ID, true))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.True(t, got.BothLocked())
	assert.True(t, got.InitiatorConfirmed)
	assert.False(t, got.PartnerConfirmed)

	// Offer change wipes locks and confirmations
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ResetTradeLocks(ctx, trade.ID))
	require.NoError(t, tx.Commit(ctx))

	got, err = repo.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Nil(t, got.InitiatorLockedAt)
	assert.Nil(t, got.PartnerLockedAt)
	assert.False(t, got.InitiatorConfirmed)
	assert.Equal(t, domain.TradeActive, got.Status)
}

func TestRepository_GetActiveTradeForUser(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 1)
	seedUser(t, repo, 2)

	_, err := repo.GetActiveTradeForUser(ctx, 10, 1)
	assert.ErrorIs(t, err, domain.ErrTradeNotFound)

	trade, err := repo.CreateTrade(ctx, 10, 1, 2)
	require.NoError(t, err)

	for _, userID := range []int64{1, 2} {
		got, err := repo.GetActiveTradeForUser(ctx, 10, userID)
		require.NoError(t, err)
		assert.Equal(t, trade.ID, got.ID)
	}
}
