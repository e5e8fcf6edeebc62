// Package eventlog persists every published game event for auditing and
// offline analysis. It is a passive bus subscriber: a failed insert is logged
// and dropped, never surfaced to the flow that published the event.
package eventlog

import (
	"context"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
)

// Entry is one logged event row.
type Entry struct {
	ID        int64       `json:"id"`
	EventType string      `json:"event_type"`
	Version   string      `json:"version"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// Repository defines the interface for event log storage
type Repository interface {
	// LogEvent stores an event; payload is serialized as JSON.
	LogEvent(ctx context.Context, eventType, version string, payload interface{}) error

	// RecentEvents retrieves the newest events of a type, newest first. An
	// empty eventType matches all types.
	RecentEvents(ctx context.Context, eventType string, limit int) ([]Entry, error)

	// CleanupOldEvents removes events older than the retention window and
	// returns the number removed.
	CleanupOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// Service handles event logging
type Service interface {
	// Subscribe registers the event logger for every game event type.
	Subscribe(bus event.Bus)

	Recent(ctx context.Context, eventType string, limit int) ([]Entry, error)
	CleanupOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo Repository
}

// NewService creates a new event log service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Subscribe(bus event.Bus) {
	eventTypes := []event.Type{
		event.SpawnCreated,
		event.SpawnClaimed,
		event.UserLevelUp,
		event.TradeCompleted,
		event.TradeInvalid,
		event.PackOpened,
		event.CardCrafted,
		event.PuzzleCompleted,
		event.RewardGranted,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}
}

func (s *service) handleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	if err := s.repo.LogEvent(ctx, string(evt.Type), evt.Version, evt.Payload); err != nil {
		log.Error("Failed to log event", "error", err, "type", evt.Type)
		return err
	}

	log.Debug("Event logged", "type", evt.Type)
	return nil
}

func (s *service) Recent(ctx context.Context, eventType string, limit int) ([]Entry, error) {
	return s.repo.RecentEvents(ctx, eventType, limit)
}

func (s *service) CleanupOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.CleanupOldEvents(ctx, retention)
}
