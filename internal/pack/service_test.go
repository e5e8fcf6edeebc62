package pack

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/catalog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/selector"
	"github.com/brainphreak/GPKdex-discord-bot/internal/testutil"
)

const userID = int64(42)

func rollSeq(vals ...float64) selector.RandFunc {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(ctx context.Context, evt event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) Subscribe(eventType event.Type, handler event.Handler) {}

func setup(t *testing.T, coins int64, rnd selector.RandFunc) (*testutil.MemRepo, Service, *recordingBus) {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	bus := &recordingBus{}

	cat := catalog.NewService(repo)
	require.NoError(t, cat.Sync(ctx, &catalog.Config{
		Series: []catalog.SeriesDef{
			{Category: "os11", Cards: 1, Weight: 1, BWeight: 0, CraftCost: 12},
		},
		Puzzles: []catalog.PuzzleDef{
			{Name: "test puzzle", Weight: 1, Pieces: 2},
		},
	}))

	_, err := repo.EnsureUser(ctx, userID)
	require.NoError(t, err)
	if coins > 0 {
		require.NoError(t, repo.CreditCoins(ctx, userID, coins))
	}

	svc := NewService(repo, cat, leveling.NewService(bus), bus, WithRand(rnd))
	return repo, svc, bus
}

func TestOpenPack(t *testing.T) {
	ctx := context.Background()
	// four card draws, then the bonus piece roll misses
	repo, svc, bus := setup(t, 6000, rollSeq(0.0, 0.0, 0.0, 0.0, 0.9))

	res, err := svc.OpenPack(ctx, userID)
	require.NoError(t, err)
	require.Len(t, res.Cards, CardsPerPack)
	assert.Nil(t, res.Piece)
	assert.Equal(t, 1, res.NewCards)
	assert.Equal(t, int64(45), res.XP)
	assert.Equal(t, int64(PackCost), res.Cost)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Coins)
	assert.Equal(t, int64(45), user.XP)
	assert.Equal(t, 1, user.TotalPacksOpened)
	assert.Equal(t, CardsPerPack, user.TotalCardsCollected)

	entry, err := repo.GetInventoryEntry(ctx, userID, res.Cards[0].ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, CardsPerPack, entry.Quantity)

	require.Len(t, bus.events, 1)
	payload, ok := bus.events[0].Payload.(event.PackOpenedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, int64(PackCost), payload.CoinsPaid)
	assert.Equal(t, 1, payload.NewCards)
	assert.Len(t, payload.ItemIDs, CardsPerPack)
}

func TestOpenPackWithBonusPiece(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t, 5000, rollSeq(0.0, 0.0, 0.0, 0.0, 0.1, 0.0, 0.0))

	res, err := svc.OpenPack(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, res.Piece)
	assert.Equal(t, domain.KindPuzzlePiece, res.Piece.Kind)
	assert.Equal(t, int64(50), res.XP)

	entry, err := repo.GetInventoryEntry(ctx, userID, res.Piece.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Quantity)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, user.Coins)
}

func TestOpenPackInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	repo, svc, bus := setup(t, PackCost-1, rollSeq(0.0, 0.0, 0.0, 0.0, 0.9))

	_, err := svc.OpenPack(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing granted.
	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(PackCost-1), user.Coins)
	assert.Zero(t, user.TotalPacksOpened)

	inv, err := repo.GetInventory(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, inv)
	assert.Empty(t, bus.events)
}
