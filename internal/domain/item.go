package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ItemKind discriminates the two collectible types sharing the items table.
type ItemKind string

const (
	KindCard        ItemKind = "card"
	KindPuzzlePiece ItemKind = "puzzle_piece"
)

// Variant of a card within its series. B variants are the rare printing and
// the target of crafting.
const (
	VariantA = "a"
	VariantB = "b"
)

// Item is an immutable catalog entry: a card or a puzzle piece. Loaded once
// at startup by the catalog loader; the core treats it as read-only reference
// data. RarityWeight 0 means the item is never randomly drawn but remains
// referenceable (e.g. for trades and crafting outputs).
type Item struct {
	ID           int      `json:"item_id"`
	Kind         ItemKind `json:"kind"`
	Category     string   `json:"category"`
	Ordinal      int      `json:"ordinal"`
	Variant      string   `json:"variant"`
	RarityWeight float64  `json:"rarity_weight"`
	CraftCost    int      `json:"craft_cost"`
	PuzzleID     *int     `json:"puzzle_id,omitempty"`
	PieceNumber  *int     `json:"piece_number,omitempty"`
}

// Key returns the structured card key for a card item.
func (i Item) Key() CardKey {
	return CardKey{Category: i.Category, Ordinal: i.Ordinal, Variant: i.Variant}
}

// RarityTier is the coarse tier used for catch coin multipliers.
type RarityTier string

const (
	TierEpic      RarityTier = "epic"       // white border errors
	TierLegendary RarityTier = "legendary"  // flashback series
	TierUltraRare RarityTier = "ultra_rare" // os1-os3
	TierRare      RarityTier = "rare"       // os4-os6, tv categories
	TierUncommon  RarityTier = "uncommon"   // os7-os10
	TierCommon    RarityTier = "common"     // os11-os15
)

// Tier maps a card's category onto its rarity tier.
func (i Item) Tier() RarityTier {
	switch {
	case i.Category == "wb":
		return TierEpic
	case strings.HasPrefix(i.Category, "fb"):
		return TierLegendary
	case strings.HasPrefix(i.Category, "tv_"):
		return TierRare
	case strings.HasPrefix(i.Category, "os"):
		n, err := strconv.Atoi(strings.TrimPrefix(i.Category, "os"))
		if err != nil {
			return TierCommon
		}
		switch {
		case n <= 3:
			return TierUltraRare
		case n <= 6:
			return TierRare
		case n <= 10:
			return TierUncommon
		}
	}
	return TierCommon
}

// CatchMultiplier is the coin multiplier applied when a spawned card of this
// tier is caught.
func (t RarityTier) CatchMultiplier() int64 {
	switch t {
	case TierEpic:
		return 20
	case TierLegendary:
		return 10
	case TierUltraRare:
		return 5
	case TierRare:
		return 3
	case TierUncommon:
		return 2
	default:
		return 1
	}
}

// CardKey is the structured card identifier (category, ordinal, variant),
// validated once at the boundary and used as a typed value internally.
type CardKey struct {
	Category string `json:"category"`
	Ordinal  int    `json:"ordinal"`
	Variant  string `json:"variant"`
}

func (k CardKey) String() string {
	return fmt.Sprintf("%s-%d%s", strings.ToUpper(k.Category), k.Ordinal, strings.ToUpper(k.Variant))
}

var cardKeyPattern = regexp.MustCompile(`^(os(?:1[0-5]|[1-9])|fb[123]|wb|tv_[a-z]+)-?(\d+)([ab])$`)

// ParseCardKey parses identifiers like "OS2-85A", "fb1-5a" or "WB10A" into a
// CardKey. White border cards only exist as A variants.
func ParseCardKey(s string) (CardKey, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	m := cardKeyPattern.FindStringSubmatch(normalized)
	if m == nil {
		return CardKey{}, fmt.Errorf("%q: %w", s, ErrInvalidCardID)
	}
	ordinal, err := strconv.Atoi(m[2])
	if err != nil || ordinal < 1 {
		return CardKey{}, fmt.Errorf("%q: %w", s, ErrInvalidCardID)
	}
	key := CardKey{Category: m[1], Ordinal: ordinal, Variant: m[3]}
	if key.Category == "wb" && key.Variant == VariantB {
		return CardKey{}, fmt.Errorf("%q: white border cards have no b variant: %w", s, ErrInvalidCardID)
	}
	return key, nil
}
