package repository

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Puzzle defines the interface for puzzle progress queries
type Puzzle interface {
	// GetProgress summarizes piece ownership across all puzzles.
	GetProgress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error)
	// GetOwnedPieces returns the distinct piece item IDs the user holds for
	// one puzzle.
	GetOwnedPieces(ctx context.Context, userID int64, puzzleID int) ([]int, error)

	BeginTx(ctx context.Context) (Tx, error)
}
