package domain

import "time"

// Puzzle is an immutable catalog entry describing a completable picture.
// Completing one consumes one copy of each of its pieces.
type Puzzle struct {
	ID             int     `json:"puzzle_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	RarityWeight   float64 `json:"rarity_weight"`
	PiecesRequired int     `json:"pieces_required"`
}

// CompletedPuzzle records how often a user has assembled a puzzle.
type CompletedPuzzle struct {
	UserID         int64     `json:"user_id"`
	PuzzleID       int       `json:"puzzle_id"`
	TimesCompleted int       `json:"times_completed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// PuzzleProgress summarizes a user's piece collection for one puzzle.
type PuzzleProgress struct {
	Puzzle         Puzzle `json:"puzzle"`
	OwnedPieces    int    `json:"owned_pieces"`
	TotalPieces    int    `json:"total_pieces"`
	TimesCompleted int    `json:"times_completed"`
}
