package domain

// CollectorRank is one leaderboard row.
type CollectorRank struct {
	Rank        int   `json:"rank"`
	UserID      int64 `json:"user_id"`
	Level       int   `json:"level"`
	XP          int64 `json:"xp"`
	UniqueCards int   `json:"unique_cards"`
	TotalCards  int   `json:"total_cards"`
}

// CollectionStats summarizes one user's collection against the full catalog.
type CollectionStats struct {
	UserID        int64 `json:"user_id"`
	UniqueCards   int   `json:"unique_cards"`
	TotalCards    int   `json:"total_cards"`
	CatalogSize   int   `json:"catalog_size"`
	PuzzlesSolved int   `json:"puzzles_solved"`
}
