package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

func TestRepository_UserLifecycle(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	user, err := repo.EnsureUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.ID)
	assert.Equal(t, int64(0), user.Coins)
	assert.Equal(t, 1, user.Level)

	// Second ensure is a no-op
	again, err := repo.EnsureUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)

	_, err = repo.GetUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRepository_CoinLedger(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 100)

	require.NoError(t, repo.CreditCoins(ctx, 100, 500))

	require.NoError(t, repo.DebitCoins(ctx, 100, 200))

	err := repo.DebitCoins(ctx, 100, 1000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	user, err := repo.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(300), user.Coins, "failed debit must not change the balance")
}

func TestRepository_ConcurrentDebits(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 100)
	require.NoError(t, repo.CreditCoins(ctx, 100, 500))

	// 10 debits of 100 against a balance of 500: exactly 5 can win.
	var succeeded, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DebitCoins(ctx, 100, 100)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, domain.ErrInsufficientFunds):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), succeeded)
	assert.Equal(t, int32(5), rejected)

	user, err := repo.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Coins)
}

func TestRepository_Inventory(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 100)
	itemID := seedCard(t, repo, "os1", 1)

	firstCopy, err := repo.AddItem(ctx, 100, itemID, 2)
	require.NoError(t, err)
	assert.True(t, firstCopy)

	firstCopy, err = repo.AddItem(ctx, 100, itemID, 3)
	require.NoError(t, err)
	assert.False(t, firstCopy)

	entry, err := repo.GetInventoryEntry(ctx, 100, itemID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 5, entry.Quantity)

	require.NoError(t, repo.RemoveItem(ctx, 100, itemID, 3))

	err = repo.RemoveItem(ctx, 100, itemID, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	// Removing the final copies deletes the row
	require.NoError(t, repo.RemoveItem(ctx, 100, itemID, 2))
	entry, err = repo.GetInventoryEntry(ctx, 100, itemID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := repo.GetInventory(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepository_TopCollectors(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	itemA := seedCard(t, repo, "os1", 1)
	itemB := seedCard(t, repo, "os1", 2)

	seedUser(t, repo, 1)
	seedUser(t, repo, 2)

	_, err := repo.AddItem(ctx, 1, itemA, 1)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, 1, itemB, 4)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, 2, itemA, 1)
	require.NoError(t, err)

	ranks, err := repo.TopCollectors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, int64(1), ranks[0].UserID)
	assert.Equal(t, 2, ranks[0].UniqueCards)
	assert.Equal(t, 5, ranks[0].TotalCards)
	assert.Equal(t, 1, ranks[0].Rank)
	assert.Equal(t, int64(2), ranks[1].UserID)
	assert.Equal(t, 2, ranks[1].Rank)
}

func TestRepository_PuzzleCompletionCounter(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, 100)

	puzzleID, err := repo.UpsertPuzzle(ctx, domain.Puzzle{
		Name:           "Garbage Gang Group Photo",
		PiecesRequired: 18,
	})
	require.NoError(t, err)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	times, err := tx.RecordPuzzleCompletion(ctx, 100, puzzleID)
	require.NoError(t, err)
	assert.Equal(t, 1, times)
	times, err = tx.RecordPuzzleCompletion(ctx, 100, puzzleID)
	require.NoError(t, err)
	assert.Equal(t, 2, times)
	require.NoError(t, tx.Commit(ctx))
}
