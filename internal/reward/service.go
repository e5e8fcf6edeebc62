// Package reward implements the cooldown-gated giveaways: the daily coin
// stipend and the hourly and leveled card claims. Cooldowns are persisted on
// the user row and checked under row locks, so concurrent claims cannot
// double-grant.
package reward

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
	"github.com/brainphreak/GPKdex-discord-bot/internal/selector"
)

// Cooldown windows and reward balance.
const (
	DailyCooldown        = 24 * time.Hour
	ClaimCooldown        = time.Hour
	LeveledClaimCooldown = 12 * time.Hour

	dailyBaseCoins  = 1500
	dailyLevelBonus = 150
	dailyXP         = 50

	newCardCoins = 200
	newCardXP    = 20
	pieceXP      = 5

	claimPieceChance = 0.03

	// Leveled claim odds grow with level, capped so high levels don't
	// collapse into guaranteed drops.
	leveledPieceBase     = 0.05
	leveledPiecePerLevel = 0.02
	leveledPieceCap      = 0.50
	leveledBPerLevel     = 0.05
	leveledBCap          = 0.50
)

// Repository defines the interface for data access required by the reward service
type Repository interface {
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	BeginTx(ctx context.Context) (repository.Tx, error)
}

// Catalog is the read-only card reference data claims draw from.
type Catalog interface {
	DrawableItems(ctx context.Context) ([]domain.Item, error)
	Puzzles(ctx context.Context) ([]domain.Puzzle, error)
	PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error)
}

// Result describes a granted reward.
type Result struct {
	Action   string           `json:"action"`
	Coins    int64            `json:"coins"`
	XP       int64            `json:"xp"`
	Item     *domain.Item     `json:"item,omitempty"`
	NewCard  bool             `json:"new_card"`
	Leveling *leveling.Result `json:"leveling,omitempty"`
}

// Service defines the interface for reward operations
type Service interface {
	// Daily grants the 24h coin stipend, scaled by level.
	Daily(ctx context.Context, userID int64) (*Result, error)
	// Claim grants the hourly random card, with a small puzzle piece chance.
	Claim(ctx context.Context, userID int64) (*Result, error)
	// LeveledClaim grants the 12h claim whose B-variant and piece odds scale
	// with the user's level.
	LeveledClaim(ctx context.Context, userID int64) (*Result, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	leveling *leveling.Service
	bus      event.Bus
	rnd      selector.RandFunc
	now      func() time.Time
}

// Option configures the service.
type Option func(*service)

// WithRand overrides the roll source, used by tests.
func WithRand(rnd selector.RandFunc) Option {
	return func(s *service) { s.rnd = rnd }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService creates a new reward service
func NewService(repo Repository, catalog Catalog, lvl *leveling.Service, bus event.Bus, opts ...Option) Service {
	s := &service{repo: repo, catalog: catalog, leveling: lvl, bus: bus, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Daily(ctx context.Context, userID int64) (*Result, error) {
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	now := s.now()
	user, err := tx.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := checkCooldown(domain.ActionDaily, user.LastDaily, now, DailyCooldown); err != nil {
		return nil, err
	}
	if err := tx.SetCooldown(ctx, userID, domain.ActionDaily, now); err != nil {
		return nil, fmt.Errorf("failed to set cooldown: %w", err)
	}

	res := &Result{
		Action: domain.ActionDaily,
		Coins:  int64(dailyBaseCoins + dailyLevelBonus*user.Level),
		XP:     dailyXP,
	}
	if err := tx.CreditCoins(ctx, userID, res.Coins); err != nil {
		return nil, fmt.Errorf("failed to credit daily coins: %w", err)
	}
	res.Leveling, err = s.leveling.Grant(ctx, tx, userID, res.XP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	s.announce(ctx, res, userID)
	return res, nil
}

func (s *service) Claim(ctx context.Context, userID int64) (*Result, error) {
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	item, err := s.drawClaim(ctx, claimPieceChance, nil)
	if err != nil {
		return nil, err
	}
	return s.grantClaim(ctx, userID, domain.ActionClaim, item)
}

func (s *service) LeveledClaim(ctx context.Context, userID int64) (*Result, error) {
	user, err := s.repo.EnsureUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	pieceChance := leveledPieceBase + leveledPiecePerLevel*float64(user.Level-1)
	if pieceChance > leveledPieceCap {
		pieceChance = leveledPieceCap
	}
	bChance := leveledBPerLevel * float64(user.Level)
	if bChance > leveledBCap {
		bChance = leveledBCap
	}

	item, err := s.drawClaim(ctx, pieceChance, &bChance)
	if err != nil {
		return nil, err
	}
	return s.grantClaim(ctx, userID, domain.ActionLeveledClaim, item)
}

// grantClaim settles a drawn claim item under the action's cooldown.
func (s *service) grantClaim(ctx context.Context, userID int64, action string, item domain.Item) (*Result, error) {
	cooldown := ClaimCooldown
	if action == domain.ActionLeveledClaim {
		cooldown = LeveledClaimCooldown
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	now := s.now()
	user, err := tx.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	last := user.LastClaim
	if action == domain.ActionLeveledClaim {
		last = user.LastLeveledClaim
	}
	if err := checkCooldown(action, last, now, cooldown); err != nil {
		return nil, err
	}
	if err := tx.SetCooldown(ctx, userID, action, now); err != nil {
		return nil, fmt.Errorf("failed to set cooldown: %w", err)
	}

	firstCopy, err := tx.AddItem(ctx, userID, item.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to add claimed item: %w", err)
	}

	res := &Result{Action: action, Item: &item}
	if item.Kind == domain.KindCard {
		res.NewCard = firstCopy
		if firstCopy {
			res.Coins = newCardCoins
			res.XP = newCardXP
		}
		if err := tx.IncrementCardsCollected(ctx, userID, 1); err != nil {
			return nil, fmt.Errorf("failed to count collected card: %w", err)
		}
	} else {
		res.XP = pieceXP
	}

	if res.Coins > 0 {
		if err := tx.CreditCoins(ctx, userID, res.Coins); err != nil {
			return nil, fmt.Errorf("failed to credit claim coins: %w", err)
		}
	}
	if res.XP > 0 {
		res.Leveling, err = s.leveling.Grant(ctx, tx, userID, res.XP)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	s.announce(ctx, res, userID)
	return res, nil
}

// drawClaim rolls a puzzle piece with the given chance, otherwise a card. A
// non-nil bChance biases the card draw toward B variants.
func (s *service) drawClaim(ctx context.Context, pieceChance float64, bChance *float64) (domain.Item, error) {
	if s.roll() < pieceChance {
		item, err := s.drawPiece(ctx)
		if err == nil {
			return item, nil
		}
		// No puzzles configured; fall through to a card.
	}

	items, err := s.catalog.DrawableItems(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to list drawable items: %w", err)
	}
	if bChance != nil && s.roll() < *bChance {
		bOnly := make([]domain.Item, 0, len(items))
		for _, it := range items {
			if it.Variant == domain.VariantB {
				bOnly = append(bOnly, it)
			}
		}
		if len(bOnly) > 0 {
			items = bOnly
		}
	}

	sel, err := selector.New(items, selector.WithRand(s.rnd))
	if err != nil {
		return domain.Item{}, err
	}
	return sel.PickOne(), nil
}

// drawPiece picks a puzzle by rarity weight, then one of its pieces
// uniformly.
func (s *service) drawPiece(ctx context.Context) (domain.Item, error) {
	puzzles, err := s.catalog.Puzzles(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to list puzzles: %w", err)
	}
	entries := make([]selector.Entry[domain.Puzzle], len(puzzles))
	for i, p := range puzzles {
		entries[i] = selector.Entry[domain.Puzzle]{Value: p, Weight: p.RarityWeight}
	}
	puzzle, err := selector.Pick(entries, s.rnd)
	if err != nil {
		return domain.Item{}, err
	}

	pieces, err := s.catalog.PuzzlePieces(ctx, puzzle.ID)
	if err != nil {
		return domain.Item{}, err
	}
	idx := int(s.roll() * float64(len(pieces)))
	if idx >= len(pieces) {
		idx = len(pieces) - 1
	}
	return pieces[idx], nil
}

func (s *service) announce(ctx context.Context, res *Result, userID int64) {
	evt := event.NewRewardGrantedEvent(userID, res.Action, res.Coins, res.XP)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish reward granted event",
			"error", err, "user_id", userID, "action", res.Action)
	}
	s.leveling.Announce(ctx, res.Leveling)

	logger.FromContext(ctx).Info("Reward granted",
		"user_id", userID, "action", res.Action, "coins", res.Coins, "xp", res.XP)
}

func checkCooldown(action string, last *time.Time, now time.Time, window time.Duration) error {
	if last == nil {
		return nil
	}
	if elapsed := now.Sub(*last); elapsed < window {
		return &domain.CooldownError{Action: action, Remaining: window - elapsed}
	}
	return nil
}

func (s *service) roll() float64 {
	if s.rnd == nil {
		return rand.Float64() //nolint:gosec // Game logic randomness, not security critical
	}
	return s.rnd()
}
