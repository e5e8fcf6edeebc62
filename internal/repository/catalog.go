package repository

import (
	"context"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Catalog defines the interface for the immutable item and puzzle catalog
type Catalog interface {
	UpsertItem(ctx context.Context, item domain.Item) (int, error)
	GetItemByID(ctx context.Context, id int) (*domain.Item, error)
	GetItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []int) ([]domain.Item, error)
	ListItems(ctx context.Context, kind domain.ItemKind) ([]domain.Item, error)
	// ListDrawableItems returns items with a positive rarity weight.
	ListDrawableItems(ctx context.Context) ([]domain.Item, error)

	UpsertPuzzle(ctx context.Context, puzzle domain.Puzzle) (int, error)
	GetPuzzleByID(ctx context.Context, id int) (*domain.Puzzle, error)
	ListPuzzles(ctx context.Context) ([]domain.Puzzle, error)
}
