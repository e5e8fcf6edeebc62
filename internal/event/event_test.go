package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishToSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	var got []Event
	bus.Subscribe(SpawnClaimed, func(ctx context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	e := NewSpawnClaimedEvent(SpawnClaimedPayloadV1{SpawnID: 1, GuildID: 2, UserID: 3})
	require.NoError(t, bus.Publish(context.Background(), e))

	require.Len(t, got, 1)
	assert.Equal(t, SpawnClaimed, got[0].Type)
	payload, ok := got[0].Payload.(SpawnClaimedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, int64(3), payload.UserID)
	assert.NotZero(t, payload.Timestamp)
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	err := bus.Publish(context.Background(), NewUserLevelUpEvent(1, 1, 2, 500))
	assert.NoError(t, err)
}

func TestMemoryBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewMemoryBus()

	var calls int
	bus.Subscribe(TradeCompleted, func(ctx context.Context, e Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(TradeCompleted, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), NewTradeCompletedEvent(1, 2, 3, 4, 2))
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoryBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := NewMemoryBus()
	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(PackOpened, func(ctx context.Context, e Event) error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), NewPackOpenedEvent(1, []int{1, 2}, 1, 5000))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 0)
}

func TestEventConstructors_SchemaVersion(t *testing.T) {
	events := []Event{
		NewSpawnCreatedEvent(1, 2, 3, 4, ""),
		NewUserLevelUpEvent(1, 1, 2, 500),
		NewTradeInvalidatedEvent(1, 2, 3, 4),
		NewCardCraftedEvent(1, 2, 3, 5),
		NewPuzzleCompletedEvent(1, 2, 1),
		NewRewardGrantedEvent(1, "daily", 1500, 50),
	}
	for _, e := range events {
		assert.Equal(t, EventSchemaVersion, e.Version, "event %s", e.Type)
		assert.NotNil(t, e.Payload)
	}
}
