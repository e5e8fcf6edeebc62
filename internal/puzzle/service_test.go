package puzzle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/catalog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/testutil"
)

const userID = int64(42)

func setup(t *testing.T) (*testutil.MemRepo, Service, int, []domain.Item) {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	bus := event.NewMemoryBus()

	cat := catalog.NewService(repo)
	require.NoError(t, cat.Sync(ctx, &catalog.Config{
		Series: []catalog.SeriesDef{
			{Category: "os1", Cards: 1, Weight: 1, BWeight: 0.5, CraftCost: 18},
		},
		Puzzles: []catalog.PuzzleDef{
			{Name: "test puzzle", Weight: 1, Pieces: 3},
		},
	}))

	puzzles, err := repo.ListPuzzles(ctx)
	require.NoError(t, err)
	require.Len(t, puzzles, 1)
	pieces, err := cat.PuzzlePieces(ctx, puzzles[0].ID)
	require.NoError(t, err)
	require.Len(t, pieces, 3)

	_, err = repo.EnsureUser(ctx, userID)
	require.NoError(t, err)

	svc := NewService(repo, cat, leveling.NewService(bus), bus)
	return repo, svc, puzzles[0].ID, pieces
}

func givePieces(t *testing.T, repo *testutil.MemRepo, pieces []domain.Item, qty int) {
	t.Helper()
	for _, p := range pieces {
		_, err := repo.AddItem(context.Background(), userID, p.ID, qty)
		require.NoError(t, err)
	}
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, pieces := setup(t)

	progress, err := svc.Progress(ctx, userID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Zero(t, progress[0].OwnedPieces)
	assert.Equal(t, 3, progress[0].TotalPieces)

	_, err = repo.AddItem(ctx, userID, pieces[0].ID, 1)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, userID, pieces[1].ID, 2)
	require.NoError(t, err)

	progress, err = svc.Progress(ctx, userID)
	require.NoError(t, err)
	// Duplicate copies of one piece count once.
	assert.Equal(t, 2, progress[0].OwnedPieces)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	repo, svc, puzzleID, pieces := setup(t)
	givePieces(t, repo, pieces, 2)

	res, err := svc.Complete(ctx, userID, puzzleID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TimesCompleted)
	assert.Equal(t, int64(CompleteXP), res.XP)

	// One copy of each piece consumed, the spares remain.
	for _, p := range pieces {
		entry, err := repo.GetInventoryEntry(ctx, userID, p.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 1, entry.Quantity)
	}

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(CompleteXP), user.XP)

	t.Run("repeat completion increments the counter", func(t *testing.T) {
		res, err := svc.Complete(ctx, userID, puzzleID)
		require.NoError(t, err)
		assert.Equal(t, 2, res.TimesCompleted)
	})

	progress, err := svc.Progress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress[0].TimesCompleted)
}

func TestCompleteMissingPiece(t *testing.T) {
	ctx := context.Background()
	repo, svc, puzzleID, pieces := setup(t)
	// All but the last piece.
	givePieces(t, repo, pieces[:2], 1)

	_, err := svc.Complete(ctx, userID, puzzleID)
	assert.ErrorIs(t, err, domain.ErrPuzzleIncomplete)

	// Nothing consumed.
	for _, p := range pieces[:2] {
		entry, err := repo.GetInventoryEntry(ctx, userID, p.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 1, entry.Quantity)
	}
	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, user.XP)
}

func TestCompleteUnknownPuzzle(t *testing.T) {
	ctx := context.Background()
	_, svc, _, _ := setup(t)

	_, err := svc.Complete(ctx, userID, 999)
	assert.ErrorIs(t, err, domain.ErrPuzzleNotFound)
}
