package leveling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/testutil"
)

func TestService_Grant_NoLevelUp(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	_, err := repo.EnsureUser(ctx, 1)
	require.NoError(t, err)

	svc := leveling.NewService(event.NewMemoryBus())

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	res, err := svc.Grant(ctx, tx, 1, 100)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, int64(100), res.TotalXP)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 1, res.NewLevel)
	assert.False(t, res.LeveledUp)
}

func TestService_Grant_LevelUpPersistsAndAnnounces(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	_, err := repo.EnsureUser(ctx, 1)
	require.NoError(t, err)

	bus := event.NewMemoryBus()
	var published []event.Event
	bus.Subscribe(event.UserLevelUp, func(ctx context.Context, e event.Event) error {
		published = append(published, e)
		return nil
	})
	svc := leveling.NewService(bus)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	res, err := svc.Grant(ctx, tx, 1, 1600)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 3, res.NewLevel)

	user, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Level)
	assert.Equal(t, int64(1600), user.XP)

	// No announcement before the explicit call
	assert.Empty(t, published)
	svc.Announce(ctx, res)
	require.Len(t, published, 1)
	payload := published[0].Payload.(event.UserLevelUpPayloadV1)
	assert.Equal(t, int64(1), payload.UserID)
	assert.Equal(t, 3, payload.NewLevel)
}

func TestService_Announce_SkipsNonLevelUps(t *testing.T) {
	bus := event.NewMemoryBus()
	var published int
	bus.Subscribe(event.UserLevelUp, func(ctx context.Context, e event.Event) error {
		published++
		return nil
	})
	svc := leveling.NewService(bus)

	svc.Announce(context.Background(), nil)
	svc.Announce(context.Background(), &leveling.Result{LeveledUp: false})
	assert.Zero(t, published)
}

func TestService_Grant_MultipleGrantsAccumulate(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	_, err := repo.EnsureUser(ctx, 1)
	require.NoError(t, err)
	svc := leveling.NewService(event.NewMemoryBus())

	grant := func(delta int64) *leveling.Result {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		res, err := svc.Grant(ctx, tx, 1, delta)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		return res
	}

	grant(400)
	res := grant(400)

	assert.Equal(t, int64(800), res.TotalXP)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)
}
