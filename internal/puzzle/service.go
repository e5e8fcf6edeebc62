// Package puzzle tracks piece collections and assembles completed puzzles,
// consuming one copy of every piece.
package puzzle

import (
	"context"
	"fmt"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

// CompleteXP is granted per assembled puzzle.
const CompleteXP = 200

// Repository defines the interface for data access required by the puzzle service
type Repository interface {
	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)
	GetPuzzleByID(ctx context.Context, id int) (*domain.Puzzle, error)
	GetProgress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error)
	// GetOwnedPieces returns the piece item IDs of the puzzle the user owns
	// at least one copy of.
	GetOwnedPieces(ctx context.Context, userID int64, puzzleID int) ([]int, error)
	BeginTx(ctx context.Context) (repository.Tx, error)
}

// Catalog is the read-only puzzle reference data.
type Catalog interface {
	PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error)
}

// Result describes a completed puzzle.
type Result struct {
	Puzzle         domain.Puzzle    `json:"puzzle"`
	TimesCompleted int              `json:"times_completed"`
	XP             int64            `json:"xp"`
	Leveling       *leveling.Result `json:"leveling,omitempty"`
}

// Service defines the interface for puzzle operations
type Service interface {
	Progress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error)
	// Complete consumes one copy of every piece and records the completion.
	// Missing pieces leave the inventory untouched.
	Complete(ctx context.Context, userID int64, puzzleID int) (*Result, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	leveling *leveling.Service
	bus      event.Bus
}

// NewService creates a new puzzle service
func NewService(repo Repository, catalog Catalog, lvl *leveling.Service, bus event.Bus) Service {
	return &service{repo: repo, catalog: catalog, leveling: lvl, bus: bus}
}

func (s *service) Progress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error) {
	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return s.repo.GetProgress(ctx, userID)
}

func (s *service) Complete(ctx context.Context, userID int64, puzzleID int) (*Result, error) {
	puzzle, err := s.repo.GetPuzzleByID(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	pieces, err := s.catalog.PuzzlePieces(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	// Cheap read-side check for the common failure; the conditional removes
	// below remain the source of truth under concurrency.
	owned, err := s.repo.GetOwnedPieces(ctx, userID, puzzleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check owned pieces: %w", err)
	}
	if len(owned) < len(pieces) {
		return nil, fmt.Errorf("%d of %d pieces: %w", len(owned), len(pieces), domain.ErrPuzzleIncomplete)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	for _, piece := range pieces {
		if err := tx.RemoveItem(ctx, userID, piece.ID, 1); err != nil {
			return nil, fmt.Errorf("piece %d of %q: %w", piece.Ordinal, puzzle.Name, err)
		}
	}

	times, err := tx.RecordPuzzleCompletion(ctx, userID, puzzleID)
	if err != nil {
		return nil, fmt.Errorf("failed to record puzzle completion: %w", err)
	}

	res := &Result{Puzzle: *puzzle, TimesCompleted: times, XP: CompleteXP}
	res.Leveling, err = s.leveling.Grant(ctx, tx, userID, CompleteXP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	evt := event.NewPuzzleCompletedEvent(userID, puzzleID, times)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish puzzle completed event", "error", err, "user_id", userID)
	}
	s.leveling.Announce(ctx, res.Leveling)

	logger.FromContext(ctx).Info("Puzzle completed",
		"user_id", userID, "puzzle", puzzle.Name, "times_completed", times)
	return res, nil
}
