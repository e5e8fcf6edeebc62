package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

const itemColumns = `item_id, kind, category, ordinal, variant, rarity_weight, craft_cost, puzzle_id, piece_number`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.Kind, &it.Category, &it.Ordinal, &it.Variant,
		&it.RarityWeight, &it.CraftCost, &it.PuzzleID, &it.PieceNumber)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()
	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// UpsertItem inserts or refreshes a catalog item, keyed by its identity
func (r *Repository) UpsertItem(ctx context.Context, item domain.Item) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO items (kind, category, ordinal, variant, rarity_weight, craft_cost, puzzle_id, piece_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind, category, ordinal, variant)
		DO UPDATE SET rarity_weight = EXCLUDED.rarity_weight,
			craft_cost = EXCLUDED.craft_cost,
			puzzle_id = EXCLUDED.puzzle_id,
			piece_number = EXCLUDED.piece_number
		RETURNING item_id
	`, item.Kind, item.Category, item.Ordinal, item.Variant,
		item.RarityWeight, item.CraftCost, item.PuzzleID, item.PieceNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert item: %w", err)
	}
	return id, nil
}

// GetItemByID fetches one catalog item
func (r *Repository) GetItemByID(ctx context.Context, id int) (*domain.Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE item_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item by id: %w", err)
	}
	return it, nil
}

// GetItemByKey fetches a card by its (category, ordinal, variant) identity
func (r *Repository) GetItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE kind = $1 AND category = $2 AND ordinal = $3 AND variant = $4
	`, domain.KindCard, key.Category, key.Ordinal, key.Variant))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", key.String(), domain.ErrCardNotFound)
		}
		return nil, fmt.Errorf("failed to get item by key: %w", err)
	}
	return it, nil
}

// GetItemsByIDs fetches catalog items in bulk
func (r *Repository) GetItemsByIDs(ctx context.Context, ids []int) ([]domain.Item, error) {
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE item_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by ids: %w", err)
	}
	return collectItems(rows)
}

// ListItems returns all catalog items of one kind
func (r *Repository) ListItems(ctx context.Context, kind domain.ItemKind) ([]domain.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE kind = $1 ORDER BY category, ordinal, variant`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return collectItems(rows)
}

// ListDrawableItems returns items eligible for random draws
func (r *Repository) ListDrawableItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE rarity_weight > 0 ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawable items: %w", err)
	}
	return collectItems(rows)
}

// UpsertPuzzle inserts or refreshes a puzzle definition, keyed by name
func (r *Repository) UpsertPuzzle(ctx context.Context, puzzle domain.Puzzle) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO puzzles (name, description, rarity_weight, pieces_required)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET description = EXCLUDED.description,
			rarity_weight = EXCLUDED.rarity_weight,
			pieces_required = EXCLUDED.pieces_required
		RETURNING puzzle_id
	`, puzzle.Name, puzzle.Description, puzzle.RarityWeight, puzzle.PiecesRequired).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert puzzle: %w", err)
	}
	return id, nil
}

// GetPuzzleByID fetches one puzzle definition
func (r *Repository) GetPuzzleByID(ctx context.Context, id int) (*domain.Puzzle, error) {
	var p domain.Puzzle
	err := r.db.QueryRow(ctx, `
		SELECT puzzle_id, name, description, rarity_weight, pieces_required
		FROM puzzles WHERE puzzle_id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.RarityWeight, &p.PiecesRequired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("failed to get puzzle: %w", err)
	}
	return &p, nil
}

// ListPuzzles returns all puzzle definitions
func (r *Repository) ListPuzzles(ctx context.Context) ([]domain.Puzzle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT puzzle_id, name, description, rarity_weight, pieces_required
		FROM puzzles ORDER BY puzzle_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list puzzles: %w", err)
	}
	defer rows.Close()

	puzzles := []domain.Puzzle{}
	for rows.Next() {
		var p domain.Puzzle
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.RarityWeight, &p.PiecesRequired); err != nil {
			return nil, fmt.Errorf("failed to scan puzzle: %w", err)
		}
		puzzles = append(puzzles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read puzzles: %w", err)
	}
	return puzzles, nil
}
