package postgres

import (
	"context"
	"fmt"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// GetProgress summarizes piece ownership across all puzzles for one user
func (r *Repository) GetProgress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.puzzle_id, p.name, p.description, p.rarity_weight, p.pieces_required,
			COUNT(i.item_id) AS owned_pieces,
			COALESCE(cp.times_completed, 0) AS times_completed
		FROM puzzles p
		LEFT JOIN items it ON it.puzzle_id = p.puzzle_id AND it.kind = $2
		LEFT JOIN inventory i ON i.item_id = it.item_id AND i.user_id = $1
		LEFT JOIN completed_puzzles cp ON cp.puzzle_id = p.puzzle_id AND cp.user_id = $1
		GROUP BY p.puzzle_id, cp.times_completed
		ORDER BY p.puzzle_id
	`, userID, domain.KindPuzzlePiece)
	if err != nil {
		return nil, fmt.Errorf("failed to query puzzle progress: %w", err)
	}
	defer rows.Close()

	progress := []domain.PuzzleProgress{}
	for rows.Next() {
		var pp domain.PuzzleProgress
		err := rows.Scan(&pp.Puzzle.ID, &pp.Puzzle.Name, &pp.Puzzle.Description,
			&pp.Puzzle.RarityWeight, &pp.Puzzle.PiecesRequired,
			&pp.OwnedPieces, &pp.TimesCompleted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan puzzle progress: %w", err)
		}
		pp.TotalPieces = pp.Puzzle.PiecesRequired
		progress = append(progress, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read puzzle progress: %w", err)
	}
	return progress, nil
}

// GetOwnedPieces returns the piece item IDs the user holds for one puzzle
func (r *Repository) GetOwnedPieces(ctx context.Context, userID int64, puzzleID int) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT it.item_id
		FROM items it
		JOIN inventory i ON i.item_id = it.item_id
		WHERE i.user_id = $1 AND it.kind = $3 AND it.puzzle_id = $2
		ORDER BY it.piece_number
	`, userID, puzzleID, domain.KindPuzzlePiece)
	if err != nil {
		return nil, fmt.Errorf("failed to query owned pieces: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owned piece: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read owned pieces: %w", err)
	}
	return ids, nil
}

func recordPuzzleCompletion(ctx context.Context, q querier, userID int64, puzzleID int) (int, error) {
	var times int
	err := q.QueryRow(ctx, `
		INSERT INTO completed_puzzles (user_id, puzzle_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, puzzle_id)
		DO UPDATE SET times_completed = completed_puzzles.times_completed + 1,
			completed_at = now()
		RETURNING times_completed
	`, userID, puzzleID).Scan(&times)
	if err != nil {
		return 0, fmt.Errorf("failed to record puzzle completion: %w", err)
	}
	return times, nil
}
