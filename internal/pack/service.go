// Package pack sells sealed card packs: a coin debit buys four weighted
// draws, with a coin-flip bonus puzzle piece.
package pack

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
	"github.com/brainphreak/GPKdex-discord-bot/internal/selector"
)

// Pack pricing and rewards.
const (
	PackCost     = 5000
	CardsPerPack = 4

	packXP      = 25
	newCardXP   = 20
	pieceXP     = 5
	pieceChance = 0.50
)

// Repository defines the interface for data access required by the pack service
type Repository interface {
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	BeginTx(ctx context.Context) (repository.Tx, error)
}

// Catalog is the read-only card reference data packs draw from.
type Catalog interface {
	DrawableItems(ctx context.Context) ([]domain.Item, error)
	Puzzles(ctx context.Context) ([]domain.Puzzle, error)
	PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error)
}

// Result describes an opened pack.
type Result struct {
	Cards    []domain.Item    `json:"cards"`
	Piece    *domain.Item     `json:"piece,omitempty"`
	NewCards int              `json:"new_cards"`
	Cost     int64            `json:"cost"`
	XP       int64            `json:"xp"`
	Leveling *leveling.Result `json:"leveling,omitempty"`
}

// Service defines the interface for pack operations
type Service interface {
	OpenPack(ctx context.Context, userID int64) (*Result, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	leveling *leveling.Service
	bus      event.Bus
	rnd      selector.RandFunc
}

// Option configures the service.
type Option func(*service)

// WithRand overrides the roll source, used by tests.
func WithRand(rnd selector.RandFunc) Option {
	return func(s *service) { s.rnd = rnd }
}

// NewService creates a new pack service
func NewService(repo Repository, catalog Catalog, lvl *leveling.Service, bus event.Bus, opts ...Option) Service {
	s := &service{repo: repo, catalog: catalog, leveling: lvl, bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) OpenPack(ctx context.Context, userID int64) (*Result, error) {
	log := logger.FromContext(ctx)

	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	// Draws are resolved before the money moves; the debit decides whether
	// the pack opens at all.
	items, err := s.catalog.DrawableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawable items: %w", err)
	}
	sel, err := selector.New(items, selector.WithRand(s.rnd))
	if err != nil {
		return nil, err
	}
	cards := sel.PickMany(CardsPerPack)

	var piece *domain.Item
	if s.roll() < pieceChance {
		p, err := s.drawPiece(ctx)
		switch {
		case err == nil:
			piece = &p
		case errors.Is(err, domain.ErrEmptySet):
			// No puzzles configured; the pack is just cards.
		default:
			return nil, err
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.DebitCoins(ctx, userID, PackCost); err != nil {
		return nil, err
	}

	res := &Result{Cards: cards, Piece: piece, Cost: PackCost}
	res.XP = packXP
	for _, card := range cards {
		firstCopy, err := tx.AddItem(ctx, userID, card.ID, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to add pack card: %w", err)
		}
		if firstCopy {
			res.NewCards++
			res.XP += newCardXP
		}
	}
	if piece != nil {
		if _, err := tx.AddItem(ctx, userID, piece.ID, 1); err != nil {
			return nil, fmt.Errorf("failed to add pack piece: %w", err)
		}
		res.XP += pieceXP
	}

	if err := tx.IncrementCardsCollected(ctx, userID, len(cards)); err != nil {
		return nil, fmt.Errorf("failed to count collected cards: %w", err)
	}
	if err := tx.IncrementPacksOpened(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count opened pack: %w", err)
	}

	res.Leveling, err = s.leveling.Grant(ctx, tx, userID, res.XP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	itemIDs := make([]int, 0, len(cards)+1)
	for _, card := range cards {
		itemIDs = append(itemIDs, card.ID)
	}
	if piece != nil {
		itemIDs = append(itemIDs, piece.ID)
	}
	evt := event.NewPackOpenedEvent(userID, itemIDs, res.NewCards, PackCost)
	if err := s.bus.Publish(ctx, evt); err != nil {
		log.Error("Failed to publish pack opened event", "error", err, "user_id", userID)
	}
	s.leveling.Announce(ctx, res.Leveling)

	log.Info("Pack opened",
		"user_id", userID, "new_cards", res.NewCards, "piece", piece != nil, "xp", res.XP)
	return res, nil
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

func (s *service) roll() float64 {
	if s.rnd == nil {
		return rand.Float64() //nolint:gosec // Game logic randomness, not security critical
	}
	return s.rnd()
}
