package leveling

import (
	"context"
	"fmt"

	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

// Result describes one XP grant.
type Result struct {
	UserID    int64 `json:"user_id"`
	Granted   int64 `json:"granted"`
	TotalXP   int64 `json:"total_xp"`
	OldLevel  int   `json:"old_level"`
	NewLevel  int   `json:"new_level"`
	LeveledUp bool  `json:"leveled_up"`
}

// Service grants XP inside callers' transactions and announces level ups
// after they commit.
type Service struct {
	bus event.Bus
}

// NewService creates a new leveling service
func NewService(bus event.Bus) *Service {
	return &Service{bus: bus}
}

// Grant adds XP within tx and promotes the cached level when a threshold is
// crossed. The caller owns the transaction; Announce must only be called
// after it commits.
func (s *Service) Grant(ctx context.Context, tx repository.Tx, userID int64, delta int64) (*Result, error) {
	total, err := tx.AddXP(ctx, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to grant xp: %w", err)
	}

	res := &Result{
		UserID:   userID,
		Granted:  delta,
		TotalXP:  total,
		OldLevel: LevelForXP(total - delta),
		NewLevel: LevelForXP(total),
	}
	res.LeveledUp = res.NewLevel > res.OldLevel

	if res.LeveledUp {
		if err := tx.PromoteLevel(ctx, userID, res.NewLevel); err != nil {
			return nil, fmt.Errorf("failed to promote level: %w", err)
		}
	}
	return res, nil
}

// Announce publishes the level up event for a committed grant.
func (s *Service) Announce(ctx context.Context, res *Result) {
	if res == nil || !res.LeveledUp {
		return
	}
	evt := event.NewUserLevelUpEvent(res.UserID, res.OldLevel, res.NewLevel, res.TotalXP)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish level up event", "error", err, "user_id", res.UserID)
	}
	logger.FromContext(ctx).Info("User leveled up",
		"user_id", res.UserID, "old_level", res.OldLevel, "new_level", res.NewLevel)
}
