package metrics

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	eventTypes := []event.Type{
		event.SpawnCreated,
		event.SpawnClaimed,
		event.PackOpened,
		event.CardCrafted,
		event.TradeCompleted,
		event.TradeInvalid,
		event.PuzzleCompleted,
		event.UserLevelUp,
		event.RewardGranted,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.SpawnCreated:
		SpawnsCreated.Inc()

	case event.SpawnClaimed:
		SpawnsClaimed.Inc()
		if p, ok := evt.Payload.(event.SpawnClaimedPayloadV1); ok {
			CoinsEarned.WithLabelValues("claim").Add(float64(p.CoinsAward))
		}

	case event.PackOpened:
		PacksOpened.Inc()
		if p, ok := evt.Payload.(event.PackOpenedPayloadV1); ok {
			CoinsSpent.WithLabelValues("pack").Add(float64(p.CoinsPaid))
		}

	case event.CardCrafted:
		CardsCrafted.Inc()

	case event.TradeCompleted:
		TradesCompleted.Inc()

	case event.TradeInvalid:
		TradesInvalidated.Inc()

	case event.PuzzleCompleted:
		PuzzlesCompleted.Inc()

	case event.UserLevelUp:
		LevelUps.Inc()

	case event.RewardGranted:
		if p, ok := evt.Payload.(event.RewardGrantedPayloadV1); ok {
			CoinsEarned.WithLabelValues(p.Action).Add(float64(p.Coins))
		}
	}

	logger.FromContext(ctx).Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
