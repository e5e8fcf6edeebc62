package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/testutil"
)

const (
	guildID   = int64(1)
	initiator = int64(10)
	partner   = int64(20)
	outsider  = int64(30)
)

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

func (b *recordingBus) last(t event.Type) (event.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Type == t {
			return b.events[i], true
		}
	}
	return event.Event{}, false
}

type fixture struct {
	repo  *testutil.MemRepo
	svc   Service
	bus   *recordingBus
	clock *fakeClock
	cardA int
	cardB int
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewMemRepo()
	bus := &recordingBus{}
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	cardA, err := repo.UpsertItem(ctx, domain.Item{
		Kind: domain.KindCard, Category: "os1", Ordinal: 1, Variant: domain.VariantA, RarityWeight: 1,
	})
	require.NoError(t, err)
	cardB, err := repo.UpsertItem(ctx, domain.Item{
		Kind: domain.KindCard, Category: "os2", Ordinal: 2, Variant: domain.VariantA, RarityWeight: 1,
	})
	require.NoError(t, err)

	for _, uid := range []int64{initiator, partner} {
		_, err := repo.EnsureUser(ctx, uid)
		require.NoError(t, err)
	}
	_, err = repo.AddItem(ctx, initiator, cardA, 3)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, partner, cardB, 3)
	require.NoError(t, err)

	return &fixture{
		repo:  repo,
		svc:   NewService(repo, bus, WithClock(clock.Now)),
		bus:   bus,
		clock: clock,
		cardA: cardA,
		cardB: cardB,
	}
}

// lockBoth locks the trade for both sides, waiting out the settle delay.
func (f *fixture) lockBoth(t *testing.T, tradeID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Lock(ctx, tradeID, initiator)
	require.NoError(t, err)
	f.clock.Advance(domain.TradeLockDelay)
	tr, err := f.svc.Lock(ctx, tradeID, partner)
	require.NoError(t, err)
	require.Equal(t, domain.TradeLocked, tr.Status)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("self trade rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID, initiator, initiator)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeActive, tr.Status)

	t.Run("participants are reserved", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID, partner, outsider)
		assert.ErrorIs(t, err, domain.ErrTradeConflict)
	})

	t.Run("other guild unaffected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID+1, initiator, partner)
		assert.NoError(t, err)
	})
}

func TestAddLineResetsLocks(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)

	require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 1))
	_, err = f.svc.Lock(ctx, tr.ID, initiator)
	require.NoError(t, err)

	// The partner changing their offer wipes the initiator's lock.
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, partner, f.cardB, 1))

	view, err := f.svc.Get(ctx, guildID, initiator)
	require.NoError(t, err)
	assert.Nil(t, view.Trade.InitiatorLockedAt)
	assert.Nil(t, view.Trade.PartnerLockedAt)
	assert.Len(t, view.Lines, 2)
}

func TestAddLineGuards(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.AddLine(ctx, tr.ID, outsider, f.cardA, 1), domain.ErrNotParticipant)
	assert.ErrorIs(t, f.svc.AddLine(ctx, 999, initiator, f.cardA, 1), domain.ErrTradeNotFound)

	t.Run("upsert replaces quantity", func(t *testing.T) {
		require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 1))
		require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 2))
		view, err := f.svc.Get(ctx, guildID, initiator)
		require.NoError(t, err)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, 2, view.Lines[0].Quantity)
	})

	t.Run("remove clamps at zero", func(t *testing.T) {
		require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 3))

		require.NoError(t, f.svc.RemoveLine(ctx, tr.ID, initiator, f.cardA, 1))
		view, err := f.svc.Get(ctx, guildID, initiator)
		require.NoError(t, err)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, 2, view.Lines[0].Quantity)

		// Withdrawing more than offered deletes the line.
		require.NoError(t, f.svc.RemoveLine(ctx, tr.ID, initiator, f.cardA, 5))
		view, err = f.svc.Get(ctx, guildID, initiator)
		require.NoError(t, err)
		assert.Empty(t, view.Lines)

		// Withdrawing from an absent line is a no-op.
		assert.NoError(t, f.svc.RemoveLine(ctx, tr.ID, initiator, f.cardA, 1))

		assert.ErrorIs(t, f.svc.RemoveLine(ctx, tr.ID, initiator, f.cardA, 0), domain.ErrInvalidInput)
	})
}

func TestLockedCallerCannotEdit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 1))
	_, err = f.svc.Lock(ctx, tr.ID, initiator)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 2), domain.ErrAlreadyLocked)
	assert.ErrorIs(t, f.svc.RemoveLine(ctx, tr.ID, initiator, f.cardA, 1), domain.ErrAlreadyLocked)

	// The rejected edits left the lock and the offer untouched.
	view, err := f.svc.Get(ctx, guildID, initiator)
	require.NoError(t, err)
	require.NotNil(t, view.Trade.InitiatorLockedAt)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)

	// The unlocked side may still edit, which resets the lock.
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, partner, f.cardB, 1))
	view, err = f.svc.Get(ctx, guildID, initiator)
	require.NoError(t, err)
	assert.Nil(t, view.Trade.InitiatorLockedAt)
}

func TestLockFlow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)

	t.Run("empty offer rejected", func(t *testing.T) {
		_, err := f.svc.Lock(ctx, tr.ID, initiator)
		assert.ErrorIs(t, err, domain.ErrEmptyOffer)
	})

	require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 1))
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, partner, f.cardB, 1))

	locked, err := f.svc.Lock(ctx, tr.ID, initiator)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeActive, locked.Status)
	assert.NotNil(t, locked.InitiatorLockedAt)

	t.Run("double lock rejected", func(t *testing.T) {
		_, err := f.svc.Lock(ctx, tr.ID, initiator)
		assert.ErrorIs(t, err, domain.ErrAlreadyLocked)
	})

	t.Run("second lock inside settle window", func(t *testing.T) {
		f.clock.Advance(5 * time.Second)
		_, err := f.svc.Lock(ctx, tr.ID, partner)
		var tooSoon *domain.LockTooSoonError
		require.ErrorAs(t, err, &tooSoon)
		assert.Equal(t, 10*time.Second, tooSoon.Remaining)
	})

	t.Run("second lock after settle window", func(t *testing.T) {
		f.clock.Advance(10 * time.Second)
		locked, err := f.svc.Lock(ctx, tr.ID, partner)
		require.NoError(t, err)
		assert.Equal(t, domain.TradeLocked, locked.Status)
	})

	t.Run("no edits once locked", func(t *testing.T) {
		err := f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 2)
		assert.ErrorIs(t, err, domain.ErrInvalidTradeState)
	})
}

func TestConfirmExecutesTrade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 2))
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, partner, f.cardB, 1))
	f.lockBoth(t, tr.ID)

	t.Run("confirm before lock state is guarded elsewhere", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, tr.ID, outsider)
		assert.ErrorIs(t, err, domain.ErrNotParticipant)
	})

	first, err := f.svc.Confirm(ctx, tr.ID, initiator)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeLocked, first.Status)

	t.Run("double confirm rejected", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, tr.ID, initiator)
		assert.ErrorIs(t, err, domain.ErrInvalidTradeState)
	})

	done, err := f.svc.Confirm(ctx, tr.ID, partner)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeCompleted, done.Status)

	// Items moved both directions.
	entry, err := f.repo.GetInventoryEntry(ctx, partner, f.cardA)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Quantity)

	entry, err = f.repo.GetInventoryEntry(ctx, initiator, f.cardB)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Quantity)

	entry, err = f.repo.GetInventoryEntry(ctx, initiator, f.cardA)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Quantity)

	evt, ok := f.bus.last(event.TradeCompleted)
	require.True(t, ok)
	payload, ok := evt.Payload.(event.TradeCompletedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, tr.ID, payload.TradeID)

	t.Run("participants released", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID, initiator, partner)
		assert.NoError(t, err)
	})
}

func TestConfirmInvalidatesUncoveredOffer(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, initiator, f.cardA, 1))
	// Partner offers more copies than they will have at execution time.
	require.NoError(t, f.svc.AddLine(ctx, tr.ID, partner, f.cardB, 3))
	f.lockBoth(t, tr.ID)

	// The offered copies vanish between lock and execute.
	require.NoError(t, f.repo.RemoveItem(ctx, partner, f.cardB, 2))

	_, err = f.svc.Confirm(ctx, tr.ID, initiator)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, tr.ID, partner)
	assert.ErrorIs(t, err, domain.ErrTradeInvalidated)

	// Nothing moved.
	entry, err := f.repo.GetInventoryEntry(ctx, initiator, f.cardA)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Quantity)

	entry, err = f.repo.GetInventoryEntry(ctx, partner, f.cardB)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Quantity)

	got, err := f.repo.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeCancelled, got.Status)

	evt, ok := f.bus.last(event.TradeInvalid)
	require.True(t, ok)
	payload, ok := evt.Payload.(event.TradeInvalidatedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, partner, payload.UserID)
	assert.Equal(t, f.cardB, payload.ItemID)

	t.Run("participants released", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID, initiator, partner)
		assert.NoError(t, err)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tr, err := f.svc.Create(ctx, guildID, initiator, partner)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(ctx, tr.ID, outsider), domain.ErrNotParticipant)
	require.NoError(t, f.svc.Cancel(ctx, tr.ID, partner))

	got, err := f.repo.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeCancelled, got.Status)

	t.Run("terminal trades cannot be cancelled again", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Cancel(ctx, tr.ID, initiator), domain.ErrInvalidTradeState)
	})

	t.Run("participants released", func(t *testing.T) {
		_, err := f.svc.Create(ctx, guildID, initiator, partner)
		assert.NoError(t, err)
	})
}
