// Package spawn posts claimable cards to guild channels and resolves the
// claim races they cause. Solo spawns are capped at one unclaimed per guild;
// mass-spawn bursts share a batch ID and are claimed newest first.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
	"github.com/brainphreak/GPKdex-discord-bot/internal/selector"
)

// Repository defines the interface for data access required by the spawn service
type Repository interface {
	CreateSpawn(ctx context.Context, spawn *domain.Spawn) error
	CreateSpawnBatch(ctx context.Context, spawns []*domain.Spawn) error
	CountUnclaimed(ctx context.Context, guildID int64) (int, error)

	GetSettings(ctx context.Context, guildID int64) (*domain.GuildSettings, error)
	UpsertSettings(ctx context.Context, settings domain.GuildSettings) error
	TouchActivity(ctx context.Context, guildID int64, timestamp time.Time) error
	TryMarkSpawned(ctx context.Context, guildID int64, now time.Time, cooldown time.Duration) (bool, error)

	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)

	BeginTx(ctx context.Context) (repository.Tx, error)
}

// Catalog is the read-only card reference data the spawner draws from.
type Catalog interface {
	DrawableItems(ctx context.Context) ([]domain.Item, error)
	Cards(ctx context.Context) ([]domain.Item, error)
	Pieces(ctx context.Context) ([]domain.Item, error)
	Puzzles(ctx context.Context) ([]domain.Puzzle, error)
	PuzzlePieces(ctx context.Context, puzzleID int) ([]domain.Item, error)
}

// ClaimResult describes a resolved claim and its awards.
type ClaimResult struct {
	Spawn       *domain.Spawn   `json:"spawn"`
	Item        domain.Item     `json:"item"`
	Coins       int64           `json:"coins"`
	XP          int64           `json:"xp"`
	NewCard     bool            `json:"new_card"`
	PuzzlePiece bool            `json:"puzzle_piece"`
	Leveling    *leveling.Result `json:"leveling,omitempty"`
}

// Service defines the interface for spawn operations
type Service interface {
	// HandleActivity records guild activity and, when the spawn cooldown has
	// elapsed, rolls for a spawn. Returns the created spawns, nil when the
	// slot is still cooling down.
	HandleActivity(ctx context.Context, guildID, channelID int64) ([]*domain.Spawn, error)
	// ForceSpawn creates a solo card spawn unconditionally (admin).
	ForceSpawn(ctx context.Context, guildID, channelID int64) (*domain.Spawn, error)
	Claim(ctx context.Context, guildID, userID int64) (*ClaimResult, error)
	SetSpawnChannel(ctx context.Context, guildID, channelID int64) error
	Pending(ctx context.Context, guildID int64) (int, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	leveling *leveling.Service
	bus      event.Bus
	rnd      selector.RandFunc
}

// Option configures the service.
type Option func(*service)

// WithRand overrides the roll source, used by tests.
func WithRand(rnd selector.RandFunc) Option {
	return func(s *service) { s.rnd = rnd }
}

// NewService creates a new spawn service
func NewService(repo Repository, catalog Catalog, lvl *leveling.Service, bus event.Bus, opts ...Option) Service {
	s := &service{repo: repo, catalog: catalog, leveling: lvl, bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) HandleActivity(ctx context.Context, guildID, channelID int64) ([]*domain.Spawn, error) {
	now := time.Now()
	if err := s.repo.TouchActivity(ctx, guildID, now); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	won, err := s.repo.TryMarkSpawned(ctx, guildID, now, SpawnCooldown)
	if err != nil {
		return nil, fmt.Errorf("failed to check spawn cooldown: %w", err)
	}
	if !won {
		return nil, nil
	}

	settings, err := s.repo.GetSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	if settings.SpawnChannelID != nil {
		channelID = *settings.SpawnChannelID
	}

	switch {
	case s.roll() < pieceSpawnChance:
		return s.spawnPiece(ctx, guildID, channelID, now)
	case s.roll() < massSpawnChance:
		return s.spawnBurst(ctx, guildID, channelID, now)
	default:
		sp, err := s.spawnSolo(ctx, guildID, channelID, now)
		if err != nil {
			return nil, err
		}
		if sp == nil {
			return nil, nil
		}
		return []*domain.Spawn{sp}, nil
	}
}

func (s *service) ForceSpawn(ctx context.Context, guildID, channelID int64) (*domain.Spawn, error) {
	item, err := s.drawCard(ctx)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, guildID, channelID, item, time.Now())
}

func (s *service) SetSpawnChannel(ctx context.Context, guildID, channelID int64) error {
	settings, err := s.repo.GetSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}
	settings.SpawnChannelID = &channelID
	if err := s.repo.UpsertSettings(ctx, *settings); err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

func (s *service) Pending(ctx context.Context, guildID int64) (int, error) {
	return s.repo.CountUnclaimed(ctx, guildID)
}

// Claim resolves a claim race against the guild's newest unclaimed spawn and
// settles the winner's awards in the same transaction.
func (s *service) Claim(ctx context.Context, guildID, userID int64) (*ClaimResult, error) {
	log := logger.FromContext(ctx)

	if _, err := s.repo.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	items, err := s.itemsByID(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	sp, err := tx.ClaimLatestSpawn(ctx, guildID, userID, time.Now())
	if err != nil {
		return nil, err
	}

	item, ok := items[sp.ItemID]
	if !ok {
		return nil, fmt.Errorf("spawn %d references item %d: %w", sp.ID, sp.ItemID, domain.ErrItemNotFound)
	}

	user, err := tx.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	firstCopy, err := tx.AddItem(ctx, userID, item.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to add claimed item: %w", err)
	}

	res := &ClaimResult{
		Spawn:       sp,
		Item:        item,
		NewCard:     firstCopy && item.Kind == domain.KindCard,
		PuzzlePiece: item.Kind == domain.KindPuzzlePiece,
	}

	if item.Kind == domain.KindCard {
		res.Coins = int64(catchBaseCoins+catchLevelBonus*user.Level) * item.Tier().CatchMultiplier()
		if item.Variant == domain.VariantB {
			res.Coins *= bVariantMultiplier
		}
		res.XP = catchXP
		if firstCopy {
			res.XP += newCardXP
			res.Coins += newCardCoins
		}
		if err := tx.IncrementCardsCollected(ctx, userID, 1); err != nil {
			return nil, fmt.Errorf("failed to count collected card: %w", err)
		}
	} else {
		res.XP = pieceXP
	}

	if res.Coins > 0 {
		if err := tx.CreditCoins(ctx, userID, res.Coins); err != nil {
			return nil, fmt.Errorf("failed to credit catch coins: %w", err)
		}
	}

	res.Leveling, err = s.leveling.Grant(ctx, tx, userID, res.XP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	if err := s.bus.Publish(ctx, event.NewSpawnClaimedEvent(event.SpawnClaimedPayloadV1{
		SpawnID:     sp.ID,
		GuildID:     guildID,
		UserID:      userID,
		ItemID:      item.ID,
		CoinsAward:  res.Coins,
		XPAward:     res.XP,
		NewCard:     res.NewCard,
		PuzzlePiece: res.PuzzlePiece,
	})); err != nil {
		log.Error("Failed to publish spawn claimed event", "error", err, "spawn_id", sp.ID)
	}
	s.leveling.Announce(ctx, res.Leveling)

	log.Info(LogMsgSpawnClaimed,
		"spawn_id", sp.ID, "guild_id", guildID, "user_id", userID,
		"item", item.Key().String(), "coins", res.Coins, "xp", res.XP, "new_card", res.NewCard)
	return res, nil
}

func (s *service) spawnSolo(ctx context.Context, guildID, channelID int64, now time.Time) (*domain.Spawn, error) {
	item, err := s.drawCard(ctx)
	if err != nil {
		return nil, err
	}
	sp, err := s.create(ctx, guildID, channelID, item, now)
	if errors.Is(err, domain.ErrSpawnConflict) {
		logger.FromContext(ctx).Debug(LogMsgSpawnSlotTaken, "guild_id", guildID)
		return nil, nil
	}
	return sp, err
}

func (s *service) spawnPiece(ctx context.Context, guildID, channelID int64, now time.Time) ([]*domain.Spawn, error) {
	item, err := s.drawPiece(ctx)
	if err != nil {
		// No puzzles configured; fall back to a card spawn.
		if errors.Is(err, domain.ErrEmptySet) {
			sp, err := s.spawnSolo(ctx, guildID, channelID, now)
			if err != nil || sp == nil {
				return nil, err
			}
			return []*domain.Spawn{sp}, nil
		}
		return nil, err
	}
	sp, err := s.create(ctx, guildID, channelID, item, now)
	if errors.Is(err, domain.ErrSpawnConflict) {
		logger.FromContext(ctx).Debug(LogMsgSpawnSlotTaken, "guild_id", guildID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*domain.Spawn{sp}, nil
}

func (s *service) spawnBurst(ctx context.Context, guildID, channelID int64, now time.Time) ([]*domain.Spawn, error) {
	size, err := selector.Pick(massSpawnSizes, s.rnd)
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.DrawableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawable items: %w", err)
	}
	sel, err := selector.New(items, selector.WithRand(s.rnd))
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	spawns := make([]*domain.Spawn, size)
	for i, item := range sel.PickMany(size) {
		bid := batchID
		spawns[i] = &domain.Spawn{
			GuildID:   guildID,
			ChannelID: channelID,
			ItemID:    item.ID,
			BatchID:   &bid,
			SpawnedAt: now,
		}
	}
	if err := s.repo.CreateSpawnBatch(ctx, spawns); err != nil {
		return nil, fmt.Errorf("failed to create spawn batch: %w", err)
	}

	for _, sp := range spawns {
		s.announce(ctx, sp, batchID)
	}
	logger.FromContext(ctx).Info(LogMsgMassSpawnCreated,
		"guild_id", guildID, "batch_id", batchID, "size", size)
	return spawns, nil
}

func (s *service) create(ctx context.Context, guildID, channelID int64, item domain.Item, now time.Time) (*domain.Spawn, error) {
	sp := &domain.Spawn{
		GuildID:   guildID,
		ChannelID: channelID,
		ItemID:    item.ID,
		SpawnedAt: now,
	}
	if err := s.repo.CreateSpawn(ctx, sp); err != nil {
		if errors.Is(err, domain.ErrSpawnConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create spawn: %w", err)
	}

	s.announce(ctx, sp, "")
	logger.FromContext(ctx).Info(LogMsgSpawnCreated,
		"spawn_id", sp.ID, "guild_id", guildID, "item_id", item.ID)
	return sp, nil
}

func (s *service) announce(ctx context.Context, sp *domain.Spawn, batchID string) {
	evt := event.NewSpawnCreatedEvent(sp.ID, sp.GuildID, sp.ChannelID, sp.ItemID, batchID)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish spawn created event", "error", err, "spawn_id", sp.ID)
	}
}

func (s *service) drawCard(ctx context.Context) (domain.Item, error) {
	items, err := s.catalog.DrawableItems(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to list drawable items: %w", err)
	}
	sel, err := selector.New(items, selector.WithRand(s.rnd))
	if err != nil {
		return domain.Item{}, err
	}
	return sel.PickOne(), nil
}

// drawPiece picks a puzzle by rarity weight, then one of its pieces
// uniformly.
func (s *service) drawPiece(ctx context.Context) (domain.Item, error) {
	puzzles, err := s.catalog.Puzzles(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to list puzzles: %w", err)
	}
	entries := make([]selector.Entry[domain.Puzzle], len(puzzles))
	for i, p := range puzzles {
		entries[i] = selector.Entry[domain.Puzzle]{Value: p, Weight: p.RarityWeight}
	}
	puzzle, err := selector.Pick(entries, s.rnd)
	if err != nil {
		return domain.Item{}, err
	}

	pieces, err := s.catalog.PuzzlePieces(ctx, puzzle.ID)
	if err != nil {
		return domain.Item{}, err
	}
	idx := int(s.roll() * float64(len(pieces)))
	if idx >= len(pieces) {
		idx = len(pieces) - 1
	}
	return pieces[idx], nil
}

func (s *service) itemsByID(ctx context.Context) (map[int]domain.Item, error) {
	cards, err := s.catalog.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	pieces, err := s.catalog.Pieces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pieces: %w", err)
	}
	items := make(map[int]domain.Item, len(cards)+len(pieces))
	for _, it := range cards {
		items[it.ID] = it
	}
	for _, it := range pieces {
		items[it.ID] = it
	}
	return items, nil
}

func (s *service) roll() float64 {
	if s.rnd == nil {
		return rand.Float64() //nolint:gosec // Game logic randomness, not security critical
	}
	return s.rnd()
}
