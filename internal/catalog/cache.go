package catalog

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Cache keys for the item list cache. The catalog is small and read-heavy,
// so whole lists are cached rather than individual items.
const (
	cacheKeyDrawable = "items:drawable"
	cacheKeyCards    = "items:cards"
	cacheKeyPieces   = "items:pieces"
	cacheKeyPuzzles  = "puzzles"
)

// listCache caches catalog list queries with time-based expiration.
type listCache struct {
	items   *expirable.LRU[string, []domain.Item]
	puzzles *expirable.LRU[string, []domain.Puzzle]
}

func newListCache(size int, ttl time.Duration) *listCache {
	return &listCache{
		items:   expirable.NewLRU[string, []domain.Item](size, nil, ttl),
		puzzles: expirable.NewLRU[string, []domain.Puzzle](size, nil, ttl),
	}
}

// Clear removes all entries; called after a Sync rewrites the catalog.
func (c *listCache) Clear() {
	c.items.Purge()
	c.puzzles.Purge()
}
