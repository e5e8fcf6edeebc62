package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Common event types
const (
	SpawnCreated    Type = "spawn.created"
	SpawnClaimed    Type = "spawn.claimed"
	UserLevelUp     Type = "user.level_up"
	TradeCompleted  Type = "trade.completed"
	TradeInvalid    Type = "trade.invalidated"
	PackOpened      Type = "pack.opened"
	CardCrafted     Type = "card.crafted"
	PuzzleCompleted Type = "puzzle.completed"
	RewardGranted   Type = "reward.granted"
)

// Typed event payloads for type safety

// SpawnCreatedPayloadV1 is the typed payload for spawn creation events
type SpawnCreatedPayloadV1 struct {
	SpawnID   int64  `json:"spawn_id"`
	GuildID   int64  `json:"guild_id"`
	ChannelID int64  `json:"channel_id"`
	ItemID    int    `json:"item_id"`
	BatchID   string `json:"batch_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SpawnClaimedPayloadV1 is the typed payload for spawn claim events
type SpawnClaimedPayloadV1 struct {
	SpawnID     int64 `json:"spawn_id"`
	GuildID     int64 `json:"guild_id"`
	UserID      int64 `json:"user_id"`
	ItemID      int   `json:"item_id"`
	CoinsAward  int64 `json:"coins_award"`
	XPAward     int64 `json:"xp_award"`
	NewCard     bool  `json:"new_card"`
	PuzzlePiece bool  `json:"puzzle_piece"`
	Timestamp   int64 `json:"timestamp"`
}

// UserLevelUpPayloadV1 is the typed payload for level up events
type UserLevelUpPayloadV1 struct {
	UserID   int64 `json:"user_id"`
	OldLevel int   `json:"old_level"`
	NewLevel int   `json:"new_level"`
	TotalXP  int64 `json:"total_xp"`
}

// TradeCompletedPayloadV1 is the typed payload for completed trades
type TradeCompletedPayloadV1 struct {
	TradeID     int64 `json:"trade_id"`
	GuildID     int64 `json:"guild_id"`
	InitiatorID int64 `json:"initiator_id"`
	PartnerID   int64 `json:"partner_id"`
	LineCount   int   `json:"line_count"`
	Timestamp   int64 `json:"timestamp"`
}

// TradeInvalidatedPayloadV1 is the typed payload for trades cancelled at
// execution because an offer could no longer be covered
type TradeInvalidatedPayloadV1 struct {
	TradeID   int64 `json:"trade_id"`
	GuildID   int64 `json:"guild_id"`
	UserID    int64 `json:"user_id"` // whose offer fell short
	ItemID    int   `json:"item_id"`
	Timestamp int64 `json:"timestamp"`
}

// PackOpenedPayloadV1 is the typed payload for pack openings
type PackOpenedPayloadV1 struct {
	UserID    int64 `json:"user_id"`
	ItemIDs   []int `json:"item_ids"`
	NewCards  int   `json:"new_cards"`
	CoinsPaid int64 `json:"coins_paid"`
	Timestamp int64 `json:"timestamp"`
}

// CardCraftedPayloadV1 is the typed payload for craft events
type CardCraftedPayloadV1 struct {
	UserID       int64 `json:"user_id"`
	SourceItemID int   `json:"source_item_id"`
	TargetItemID int   `json:"target_item_id"`
	CopiesSpent  int   `json:"copies_spent"`
	Timestamp    int64 `json:"timestamp"`
}

// PuzzleCompletedPayloadV1 is the typed payload for puzzle completions
type PuzzleCompletedPayloadV1 struct {
	UserID         int64 `json:"user_id"`
	PuzzleID       int   `json:"puzzle_id"`
	TimesCompleted int   `json:"times_completed"`
	Timestamp      int64 `json:"timestamp"`
}

// RewardGrantedPayloadV1 is the typed payload for daily/claim rewards
type RewardGrantedPayloadV1 struct {
	UserID    int64  `json:"user_id"`
	Action    string `json:"action"`
	Coins     int64  `json:"coins"`
	XP        int64  `json:"xp"`
	Timestamp int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewSpawnCreatedEvent creates a new spawn created event
func NewSpawnCreatedEvent(spawnID, guildID, channelID int64, itemID int, batchID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SpawnCreated,
		Payload: SpawnCreatedPayloadV1{
			SpawnID:   spawnID,
			GuildID:   guildID,
			ChannelID: channelID,
			ItemID:    itemID,
			BatchID:   batchID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewSpawnClaimedEvent creates a new spawn claimed event
func NewSpawnClaimedEvent(p SpawnClaimedPayloadV1) Event {
	p.Timestamp = time.Now().Unix()
	return Event{Version: EventSchemaVersion, Type: SpawnClaimed, Payload: p}
}

// NewUserLevelUpEvent creates a new level up event
func NewUserLevelUpEvent(userID int64, oldLevel, newLevel int, totalXP int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    UserLevelUp,
		Payload: UserLevelUpPayloadV1{
			UserID:   userID,
			OldLevel: oldLevel,
			NewLevel: newLevel,
			TotalXP:  totalXP,
		},
	}
}

// NewTradeCompletedEvent creates a new trade completed event
func NewTradeCompletedEvent(tradeID, guildID, initiatorID, partnerID int64, lineCount int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TradeCompleted,
		Payload: TradeCompletedPayloadV1{
			TradeID:     tradeID,
			GuildID:     guildID,
			InitiatorID: initiatorID,
			PartnerID:   partnerID,
			LineCount:   lineCount,
			Timestamp:   time.Now().Unix(),
		},
	}
}

// NewTradeInvalidatedEvent creates a new trade invalidated event
func NewTradeInvalidatedEvent(tradeID, guildID, userID int64, itemID int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TradeInvalid,
		Payload: TradeInvalidatedPayloadV1{
			TradeID:   tradeID,
			GuildID:   guildID,
			UserID:    userID,
			ItemID:    itemID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewPackOpenedEvent creates a new pack opened event
func NewPackOpenedEvent(userID int64, itemIDs []int, newCards int, coinsPaid int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PackOpened,
		Payload: PackOpenedPayloadV1{
			UserID:    userID,
			ItemIDs:   itemIDs,
			NewCards:  newCards,
			CoinsPaid: coinsPaid,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewCardCraftedEvent creates a new card crafted event
func NewCardCraftedEvent(userID int64, sourceItemID, targetItemID, copiesSpent int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    CardCrafted,
		Payload: CardCraftedPayloadV1{
			UserID:       userID,
			SourceItemID: sourceItemID,
			TargetItemID: targetItemID,
			CopiesSpent:  copiesSpent,
			Timestamp:    time.Now().Unix(),
		},
	}
}

// NewPuzzleCompletedEvent creates a new puzzle completed event
func NewPuzzleCompletedEvent(userID int64, puzzleID, timesCompleted int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PuzzleCompleted,
		Payload: PuzzleCompletedPayloadV1{
			UserID:         userID,
			PuzzleID:       puzzleID,
			TimesCompleted: timesCompleted,
			Timestamp:      time.Now().Unix(),
		},
	}
}

// NewRewardGrantedEvent creates a new reward granted event
func NewRewardGrantedEvent(userID int64, action string, coins, xp int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RewardGranted,
		Payload: RewardGrantedPayloadV1{
			UserID:    userID,
			Action:    action,
			Coins:     coins,
			XP:        xp,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers execute synchronously; a failing handler must not stop the rest.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
