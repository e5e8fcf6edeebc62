package spawn

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

// rollSeq cycles through the given rolls.
func rollSeq(vals ...float64) selector.RandFunc {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

// recordingBus captures published events.
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

func (b *recordingBus) ofType(t event.Type) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func setup(t *testing.T, rnd selector.RandFunc) (*testutil.MemRepo, Service, *recordingBus) {
	t.Helper()
	repo := testutil.NewMemRepo()
	bus := &recordingBus{}

	cat := catalog.NewService(repo)
	require.NoError(t, cat.Sync(context.Background(), &catalog.Config{
		Series: []catalog.SeriesDef{
			{Category: "os1", Cards: 1, Weight: 1, BWeight: 0, CraftCost: 18},
		},
		Puzzles: []catalog.PuzzleDef{
			{Name: "test puzzle", Weight: 1, Pieces: 2},
		},
	}))

	svc := NewService(repo, cat, leveling.NewService(bus), bus, WithRand(rnd))
	return repo, svc, bus
}

func TestHandleActivityCooldown(t *testing.T) {
	ctx := context.Background()
	// pieceRoll, massRoll high, then card draw
	_, svc, _ := setup(t, rollSeq(0.9))

	spawns, err := svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, spawns, 1)
	assert.Nil(t, spawns[0].BatchID)
	assert.Equal(t, int64(100), spawns[0].ChannelID)

	// Within the cooldown window nothing spawns.
	spawns, err = svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	assert.Empty(t, spawns)
}

func TestHandleActivityMassSpawn(t *testing.T) {
	ctx := context.Background()
	// piece roll misses, mass roll hits, size roll picks the smallest burst
	repo, svc, bus := setup(t, rollSeq(0.9, 0.01, 0.0))

	spawns, err := svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, spawns, 3)

	batchID := spawns[0].BatchID
	require.NotNil(t, batchID)
	for _, sp := range spawns {
		require.NotNil(t, sp.BatchID)
		assert.Equal(t, *batchID, *sp.BatchID)
	}

	n, err := repo.CountUnclaimed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, bus.ofType(event.SpawnCreated), 3)
}

func TestHandleActivityPieceSpawn(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t, rollSeq(0.01, 0.0, 0.0))

	spawns, err := svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, spawns, 1)

	items, err := repo.ListItems(ctx, domain.KindPuzzlePiece)
	require.NoError(t, err)
	found := false
	for _, it := range items {
		if it.ID == spawns[0].ItemID {
			found = true
		}
	}
	assert.True(t, found, "spawned item should be a puzzle piece")
}

func TestHandleActivityPrefersConfiguredChannel(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t, rollSeq(0.9))

	require.NoError(t, svc.SetSpawnChannel(ctx, 1, 777))

	spawns, err := svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, spawns, 1)
	assert.Equal(t, int64(777), spawns[0].ChannelID)
}

func TestForceSpawnConflict(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t, rollSeq(0.0))

	sp, err := svc.ForceSpawn(ctx, 1, 100)
	require.NoError(t, err)
	require.NotNil(t, sp)

	_, err = svc.ForceSpawn(ctx, 1, 100)
	assert.ErrorIs(t, err, domain.ErrSpawnConflict)

	// Other guilds keep their own slot.
	_, err = svc.ForceSpawn(ctx, 2, 100)
	assert.NoError(t, err)
}

func TestClaimAwards(t *testing.T) {
	ctx := context.Background()
	repo, svc, bus := setup(t, rollSeq(0.0))

	_, err := svc.ForceSpawn(ctx, 1, 100)
	require.NoError(t, err)

	res, err := svc.Claim(ctx, 1, 42)
	require.NoError(t, err)

	// os1 is ultra rare: (50 + 10*1) * 5, plus the new card bonus.
	assert.Equal(t, int64(500), res.Coins)
	assert.Equal(t, int64(30), res.XP)
	assert.True(t, res.NewCard)
	assert.False(t, res.PuzzlePiece)

	user, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(500), user.Coins)
	assert.Equal(t, int64(30), user.XP)
	assert.Equal(t, 1, user.TotalCardsCollected)

	entry, err := repo.GetInventoryEntry(ctx, 42, res.Item.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Quantity)

	claimed := bus.ofType(event.SpawnClaimed)
	require.Len(t, claimed, 1)
	payload, ok := claimed[0].Payload.(event.SpawnClaimedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, int64(500), payload.CoinsAward)
	assert.True(t, payload.NewCard)
}

func TestClaimDuplicateCopySkipsBonus(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t, rollSeq(0.0))

	_, err := svc.ForceSpawn(ctx, 1, 100)
	require.NoError(t, err)
	first, err := svc.Claim(ctx, 1, 42)
	require.NoError(t, err)
	require.True(t, first.NewCard)

	_, err = svc.ForceSpawn(ctx, 1, 100)
	require.NoError(t, err)
	second, err := svc.Claim(ctx, 1, 42)
	require.NoError(t, err)

	assert.False(t, second.NewCard)
	assert.Equal(t, int64(300), second.Coins)
	assert.Equal(t, int64(10), second.XP)
}

func TestClaimNothingToCatch(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t, rollSeq(0.0))

	_, err := svc.Claim(ctx, 1, 42)
	assert.ErrorIs(t, err, domain.ErrNothingToCatch)
}

func TestClaimPuzzlePiece(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t, rollSeq(0.01, 0.0, 0.0))

	spawns, err := svc.HandleActivity(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, spawns, 1)

	res, err := svc.Claim(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, res.PuzzlePiece)
	assert.False(t, res.NewCard)
	assert.Zero(t, res.Coins)
	assert.Equal(t, int64(5), res.XP)

	user, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, user.TotalCardsCollected)
}

func TestPending(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t, rollSeq(0.0))

	n, err := svc.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.ForceSpawn(ctx, 1, 100)
	require.NoError(t, err)

	n, err = svc.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
