// Package catalog owns the immutable card, piece and puzzle reference data:
// syncing it from the series config into the database and serving cached
// lookups to the game services.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
)

// Default cache shape: four list keys exist, TTL just bounds staleness after
// an out-of-band catalog edit.
const (
	DefaultCacheSize = 16
	DefaultCacheTTL  = 5 * time.Minute
)

// Repository defines the interface for data access required by the catalog service
type Repository interface {
	UpsertItem(ctx context.Context, item domain.Item) (int, error)
	GetItemByID(ctx context.Context, id int) (*domain.Item, error)
	GetItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error)
	ListItems(ctx context.Context, kind domain.ItemKind) ([]domain.Item, error)
	ListDrawableItems(ctx context.Context) ([]domain.Item, error)
	UpsertPuzzle(ctx context.Context, puzzle domain.Puzzle) (int, error)
	GetPuzzleByID(ctx context.Context, id int) (*domain.Puzzle, error)
	ListPuzzles(ctx context.Context) ([]domain.Puzzle, error)
	TopCollectors(ctx context.Context, limit int) ([]domain.CollectorRank, error)
	GetInventory(ctx context.Context, userID int64) ([]domain.InventoryEntry, error)
	GetProgress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error)
}

// Service defines the interface for catalog operations
type Service interface {
	Sync(ctx context.Context, cfg *Config) error
	Item(ctx context.Context, id int) (*domain.Item, error)
	ItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error)
	Cards(ctx context.Context) ([]domain.Item, error)
	Pieces(ctx context.Context) ([]domain.Item, error)
	DrawableItems(ctx context.Context) ([]domain.Item, error)
	Puzzles(ctx context.Context) ([]domain.Puzzle, error)
	Puzzle(ctx context.Context, id int) (*domain.Puzzle, error)
	PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.CollectorRank, error)
	Stats(ctx context.Context, userID int64) (*domain.CollectionStats, error)
}

type service struct {
	repo  Repository
	cache *listCache
}

// NewService creates a new catalog service
func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		cache: newListCache(DefaultCacheSize, DefaultCacheTTL),
	}
}

// Sync upserts the configured series and puzzles into the database. Existing
// items keep their IDs, so inventories survive config updates.
func (s *service) Sync(ctx context.Context, cfg *Config) error {
	log := logger.FromContext(ctx)

	pieceCount := 0
	for _, pd := range cfg.Puzzles {
		puzzleID, err := s.repo.UpsertPuzzle(ctx, domain.Puzzle{
			Name:           pd.Name,
			Description:    pd.Description,
			RarityWeight:   pd.Weight,
			PiecesRequired: pd.Pieces,
		})
		if err != nil {
			return fmt.Errorf("failed to sync puzzle %q: %w", pd.Name, err)
		}
		for piece := 1; piece <= pd.Pieces; piece++ {
			pid := puzzleID
			pn := piece
			// Pieces are drawn via the puzzle roll, not the card
			// selector, so they carry no rarity weight of their own.
			_, err := s.repo.UpsertItem(ctx, domain.Item{
				Kind:        domain.KindPuzzlePiece,
				Category:    fmt.Sprintf("puzzle%d", puzzleID),
				Ordinal:     piece,
				PuzzleID:    &pid,
				PieceNumber: &pn,
			})
			if err != nil {
				return fmt.Errorf("failed to sync piece %d of puzzle %q: %w", piece, pd.Name, err)
			}
			pieceCount++
		}
	}

	cardCount := 0
	for _, sd := range cfg.Series {
		for ordinal := 1; ordinal <= sd.Cards; ordinal++ {
			_, err := s.repo.UpsertItem(ctx, domain.Item{
				Kind:         domain.KindCard,
				Category:     sd.Category,
				Ordinal:      ordinal,
				Variant:      domain.VariantA,
				RarityWeight: sd.Weight,
				CraftCost:    sd.CraftCost,
			})
			if err != nil {
				return fmt.Errorf("failed to sync card %s-%d: %w", sd.Category, ordinal, err)
			}
			cardCount++
			if sd.NoBSide {
				continue
			}
			_, err = s.repo.UpsertItem(ctx, domain.Item{
				Kind:         domain.KindCard,
				Category:     sd.Category,
				Ordinal:      ordinal,
				Variant:      domain.VariantB,
				RarityWeight: sd.BWeight,
				CraftCost:    sd.CraftCost,
			})
			if err != nil {
				return fmt.Errorf("failed to sync card %s-%db: %w", sd.Category, ordinal, err)
			}
			cardCount++
		}
	}

	s.cache.Clear()
	log.Info("Catalog synced", "cards", cardCount, "pieces", pieceCount, "puzzles", len(cfg.Puzzles))
	return nil
}

func (s *service) Item(ctx context.Context, id int) (*domain.Item, error) {
	return s.repo.GetItemByID(ctx, id)
}

func (s *service) ItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error) {
	return s.repo.GetItemByKey(ctx, key)
}

func (s *service) Cards(ctx context.Context) ([]domain.Item, error) {
	if cached, ok := s.cache.items.Get(cacheKeyCards); ok {
		return cached, nil
	}
	cards, err := s.repo.ListItems(ctx, domain.KindCard)
	if err != nil {
		return nil, err
	}
	s.cache.items.Add(cacheKeyCards, cards)
	return cards, nil
}

func (s *service) DrawableItems(ctx context.Context) ([]domain.Item, error) {
	if cached, ok := s.cache.items.Get(cacheKeyDrawable); ok {
		return cached, nil
	}
	items, err := s.repo.ListDrawableItems(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.items.Add(cacheKeyDrawable, items)
	return items, nil
}

func (s *service) Puzzles(ctx context.Context) ([]domain.Puzzle, error) {
	if cached, ok := s.cache.puzzles.Get(cacheKeyPuzzles); ok {
		return cached, nil
	}
	puzzles, err := s.repo.ListPuzzles(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.puzzles.Add(cacheKeyPuzzles, puzzles)
	return puzzles, nil
}

func (s *service) Puzzle(ctx context.Context, id int) (*domain.Puzzle, error) {
	return s.repo.GetPuzzleByID(ctx, id)
}

func (s *service) Pieces(ctx context.Context) ([]domain.Item, error) {
	if cached, ok := s.cache.items.Get(cacheKeyPieces); ok {
		return cached, nil
	}
	pieces, err := s.repo.ListItems(ctx, domain.KindPuzzlePiece)
	if err != nil {
		return nil, err
	}
	s.cache.items.Add(cacheKeyPieces, pieces)
	return pieces, nil
}

func (s *service) PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error) {
	pieces, err := s.Pieces(ctx)
	if err != nil {
		return nil, err
	}

	matched := []domain.Item{}
	for _, p := range pieces {
		if p.PuzzleID != nil && *p.PuzzleID == puzzleID {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return nil, domain.ErrPuzzleNotFound
	}
	return matched, nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]domain.CollectorRank, error) {
	return s.repo.TopCollectors(ctx, limit)
}

func (s *service) Stats(ctx context.Context, userID int64) (*domain.CollectionStats, error) {
	inventory, err := s.repo.GetInventory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	cards, err := s.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	cardIDs := make(map[int]bool, len(cards))
	for _, c := range cards {
		cardIDs[c.ID] = true
	}

	stats := &domain.CollectionStats{UserID: userID, CatalogSize: len(cards)}
	for _, e := range inventory {
		if !cardIDs[e.ItemID] {
			continue
		}
		stats.UniqueCards++
		stats.TotalCards += e.Quantity
	}

	progress, err := s.repo.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get puzzle progress: %w", err)
	}
	for _, p := range progress {
		if p.TimesCompleted > 0 {
			stats.PuzzlesSolved++
		}
	}
	return stats, nil
}
