package eventlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *fakeRepo) LogEvent(ctx context.Context, eventType, version string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		ID:        int64(len(r.entries) + 1),
		EventType: eventType,
		Version:   version,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	return nil
}

func (r *fakeRepo) RecentEvents(ctx context.Context, eventType string, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if eventType == "" || r.entries[i].EventType == eventType {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) CleanupOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return 0, nil
}

func TestSubscribeLogsPublishedEvents(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	bus := event.NewMemoryBus()

	svc := NewService(repo)
	svc.Subscribe(bus)

	require.NoError(t, bus.Publish(ctx, event.NewCardCraftedEvent(42, 1, 2, 18)))
	require.NoError(t, bus.Publish(ctx, event.NewUserLevelUpEvent(42, 1, 2, 600)))

	entries, err := svc.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, string(event.UserLevelUp), entries[0].EventType)
	assert.Equal(t, string(event.CardCrafted), entries[1].EventType)

	crafted, err := svc.Recent(ctx, string(event.CardCrafted), 10)
	require.NoError(t, err)
	require.Len(t, crafted, 1)

	payload, ok := crafted[0].Payload.(event.CardCraftedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, int64(42), payload.UserID)
	assert.Equal(t, 18, payload.CopiesSpent)
}
