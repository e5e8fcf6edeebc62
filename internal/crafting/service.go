// Package crafting converts stacks of a card's common printing into its rare
// B printing.
package crafting

import (
	"context"
	"fmt"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

// CraftXP is granted per successful craft.
const CraftXP = 100

// Repository defines the interface for data access required by the crafting service
type Repository interface {
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	GetItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error)
	BeginTx(ctx context.Context) (repository.Tx, error)
}

// Result describes a finished craft.
type Result struct {
	Source      domain.Item      `json:"source"`
	Target      domain.Item      `json:"target"`
	CopiesSpent int              `json:"copies_spent"`
	NewCard     bool             `json:"new_card"`
	Leveling    *leveling.Result `json:"leveling,omitempty"`
}

// Service defines the interface for crafting operations
type Service interface {
	// CraftVariant consumes the source card's craft cost in A copies and
	// produces one B copy of the same card.
	CraftVariant(ctx context.Context, userID int64, key domain.CardKey) (*Result, error)
}

type service struct {
	repo     Repository
	leveling *leveling.Service
	bus      event.Bus
}

// NewService creates a new crafting service
func NewService(repo Repository, lvl *leveling.Service, bus event.Bus) Service {
	return &service{repo: repo, leveling: lvl, bus: bus}
}

func (s *service) CraftVariant(ctx context.Context, userID int64, key domain.CardKey) (*Result, error) {
	if key.Variant != domain.VariantA {
		return nil, fmt.Errorf("only a variants can be crafted into b: %w", domain.ErrInvalidInput)
	}

	source, err := s.repo.GetItemByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	// White border and other single-printing series have no B side.
	target, err := s.repo.GetItemByKey(ctx, domain.CardKey{
		Category: key.Category, Ordinal: key.Ordinal, Variant: domain.VariantB,
	})
	if err != nil {
		return nil, err
	}
	if source.CraftCost < 1 {
		return nil, fmt.Errorf("%s is not craftable: %w", key.String(), domain.ErrInvalidInput)
	}

	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.RemoveItem(ctx, userID, source.ID, source.CraftCost); err != nil {
		return nil, err
	}
	firstCopy, err := tx.AddItem(ctx, userID, target.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to add crafted card: %w", err)
	}

	res := &Result{
		Source:      *source,
		Target:      *target,
		CopiesSpent: source.CraftCost,
		NewCard:     firstCopy,
	}
	res.Leveling, err = s.leveling.Grant(ctx, tx, userID, CraftXP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	evt := event.NewCardCraftedEvent(userID, source.ID, target.ID, source.CraftCost)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish card crafted event", "error", err, "user_id", userID)
	}
	s.leveling.Announce(ctx, res.Leveling)

	logger.FromContext(ctx).Info("Card crafted",
		"user_id", userID, "card", target.Key().String(), "copies_spent", source.CraftCost)
	return res, nil
}
