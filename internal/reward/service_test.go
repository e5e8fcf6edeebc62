package reward

import (
	"context"
	"sync"
	"testing"
	"time"

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

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func setup(t *testing.T, rnd selector.RandFunc) (*testutil.MemRepo, Service, *fakeClock) {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	bus := event.NewMemoryBus()
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	cat := catalog.NewService(repo)
	require.NoError(t, cat.Sync(ctx, &catalog.Config{
		Series: []catalog.SeriesDef{
			{Category: "os1", Cards: 1, Weight: 1, BWeight: 0.5, CraftCost: 18},
		},
		Puzzles: []catalog.PuzzleDef{
			{Name: "test puzzle", Weight: 1, Pieces: 2},
		},
	}))

	_, err := repo.EnsureUser(ctx, userID)
	require.NoError(t, err)

	svc := NewService(repo, cat, leveling.NewService(bus), bus,
		WithRand(rnd), WithClock(clock.Now))
	return repo, svc, clock
}

func TestDaily(t *testing.T) {
	ctx := context.Background()
	repo, svc, clock := setup(t, rollSeq(0.9))

	res, err := svc.Daily(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1650), res.Coins)
	assert.Equal(t, int64(dailyXP), res.XP)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1650), user.Coins)
	assert.Equal(t, int64(dailyXP), user.XP)
	require.NotNil(t, user.LastDaily)

	t.Run("second daily inside window", func(t *testing.T) {
		clock.Advance(23 * time.Hour)
		_, err := svc.Daily(ctx, userID)
		require.ErrorIs(t, err, domain.ErrOnCooldown)
		var cd *domain.CooldownError
		require.ErrorAs(t, err, &cd)
		assert.Equal(t, domain.ActionDaily, cd.Action)
		assert.Equal(t, time.Hour, cd.Remaining)
	})

	t.Run("after window", func(t *testing.T) {
		clock.Advance(time.Hour)
		res, err := svc.Daily(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1650), res.Coins)
	})
}

func TestDailyScalesWithLevel(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t, rollSeq(0.9))

	// Push the user to level 3 (threshold 1500).
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.AddXP(ctx, userID, 1500)
	require.NoError(t, err)
	require.NoError(t, tx.PromoteLevel(ctx, userID, 3))
	require.NoError(t, tx.Commit(ctx))

	res, err := svc.Daily(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500+150*3), res.Coins)
}

func TestClaimGrantsCard(t *testing.T) {
	ctx := context.Background()
	// piece roll misses, then the card draw
	repo, svc, clock := setup(t, rollSeq(0.9, 0.0))

	res, err := svc.Claim(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.Equal(t, domain.KindCard, res.Item.Kind)
	assert.True(t, res.NewCard)
	assert.Equal(t, int64(newCardCoins), res.Coins)
	assert.Equal(t, int64(newCardXP), res.XP)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalCardsCollected)
	require.NotNil(t, user.LastClaim)

	t.Run("hourly cooldown", func(t *testing.T) {
		_, err := svc.Claim(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrOnCooldown)

		clock.Advance(ClaimCooldown)
		dup, err := svc.Claim(ctx, userID)
		require.NoError(t, err)
		assert.False(t, dup.NewCard)
		assert.Zero(t, dup.Coins)
	})
}

func TestClaimGrantsPiece(t *testing.T) {
	ctx := context.Background()
	// piece roll hits, then puzzle pick and uniform piece pick
	repo, svc, _ := setup(t, rollSeq(0.0, 0.0, 0.0))

	res, err := svc.Claim(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.Equal(t, domain.KindPuzzlePiece, res.Item.Kind)
	assert.Equal(t, int64(pieceXP), res.XP)
	assert.Zero(t, res.Coins)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, user.TotalCardsCollected)
}

func TestLeveledClaimBiasesTowardBVariants(t *testing.T) {
	ctx := context.Background()
	// piece roll misses, B roll hits, then the draw over B variants only
	repo, svc, clock := setup(t, rollSeq(0.9, 0.01, 0.0))

	res, err := svc.LeveledClaim(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.Equal(t, domain.VariantB, res.Item.Variant)

	user, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user.LastLeveledClaim)

	t.Run("independent of hourly claim cooldown", func(t *testing.T) {
		_, err := svc.Claim(ctx, userID)
		assert.NoError(t, err)
	})

	t.Run("twelve hour cooldown", func(t *testing.T) {
		_, err := svc.LeveledClaim(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrOnCooldown)

		clock.Advance(LeveledClaimCooldown)
		_, err = svc.LeveledClaim(ctx, userID)
		assert.NoError(t, err)
	})
}
