// Package testutil provides an in-memory repository implementation backing
// service unit tests, with the same error semantics as the Postgres layer.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

type itemIdentity struct {
	kind     domain.ItemKind
	category string
	ordinal  int
	variant  string
}

type participantKey struct {
	guildID int64
	userID  int64
}

type state struct {
	users        map[int64]*domain.User
	inventory    map[int64]map[int]*domain.InventoryEntry
	items        map[int]domain.Item
	itemIndex    map[itemIdentity]int
	puzzles      map[int]domain.Puzzle
	completed    map[int64]map[int]int
	spawns       map[int64]*domain.Spawn
	guilds       map[int64]*domain.GuildSettings
	trades       map[int64]*domain.Trade
	lines        map[int64][]domain.TradeLine
	participants map[participantKey]int64

	nextItem   int
	nextPuzzle int
	nextSpawn  int64
	nextTrade  int64
}

func newState() *state {
	return &state{
		users:        map[int64]*domain.User{},
		inventory:    map[int64]map[int]*domain.InventoryEntry{},
		items:        map[int]domain.Item{},
		itemIndex:    map[itemIdentity]int{},
		puzzles:      map[int]domain.Puzzle{},
		completed:    map[int64]map[int]int{},
		spawns:       map[int64]*domain.Spawn{},
		guilds:       map[int64]*domain.GuildSettings{},
		trades:       map[int64]*domain.Trade{},
		lines:        map[int64][]domain.TradeLine{},
		participants: map[participantKey]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextItem, c.nextPuzzle, c.nextSpawn, c.nextTrade = s.nextItem, s.nextPuzzle, s.nextSpawn, s.nextTrade
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for uid, inv := range s.inventory {
		m := map[int]*domain.InventoryEntry{}
		for id, e := range inv {
			entry := *e
			m[id] = &entry
		}
		c.inventory[uid] = m
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.itemIndex {
		c.itemIndex[k] = v
	}
	for k, v := range s.puzzles {
		c.puzzles[k] = v
	}
	for uid, m := range s.completed {
		mm := map[int]int{}
		for k, v := range m {
			mm[k] = v
		}
		c.completed[uid] = mm
	}
	for k, v := range s.spawns {
		sp := *v
		c.spawns[k] = &sp
	}
	for k, v := range s.guilds {
		g := *v
		c.guilds[k] = &g
	}
	for k, v := range s.trades {
		t := *v
		c.trades[k] = &t
	}
	for k, v := range s.lines {
		c.lines[k] = append([]domain.TradeLine(nil), v...)
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	return c
}

// MemRepo is an in-memory repository. Transactions snapshot the whole state
// and swap it back in on commit; concurrent transactions serialize.
type MemRepo struct {
	mu sync.Mutex
	st *state

	// BeginTxErr, when set, makes BeginTx fail. Used to exercise error paths.
	BeginTxErr error
}

// NewMemRepo creates an empty in-memory repository
func NewMemRepo() *MemRepo {
	return &MemRepo{st: newState()}
}

// BeginTx snapshots the state; the returned Tx holds the repo lock until
// Commit or Rollback.
func (r *MemRepo) BeginTx(ctx context.Context) (repository.Tx, error) {
	if r.BeginTxErr != nil {
		return nil, r.BeginTxErr
	}
	r.mu.Lock()
	return &memTx{repo: r, st: r.st.clone()}, nil
}

// --- user / ledger ---

func ensureUser(st *state, userID int64) *domain.User {
	u, ok := st.users[userID]
	if !ok {
		u = &domain.User{ID: userID, Level: 1, CreatedAt: time.Now()}
		st.users[userID] = u
	}
	return u
}

func (r *MemRepo) EnsureUser(ctx context.Context, userID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := ensureUser(r.st, userID)
	cp := *u
	return &cp, nil
}

func getUser(st *state, userID int64) (*domain.User, error) {
	u, ok := st.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return getUser(r.st, userID)
}

func creditCoins(st *state, userID, amount int64) error {
	u, ok := st.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Coins += amount
	return nil
}

func debitCoins(st *state, userID, amount int64) error {
	u, ok := st.users[userID]
	if !ok || u.Coins < amount {
		return domain.ErrInsufficientFunds
	}
	u.Coins -= amount
	return nil
}

func (r *MemRepo) CreditCoins(ctx context.Context, userID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return creditCoins(r.st, userID, amount)
}

func (r *MemRepo) DebitCoins(ctx context.Context, userID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return debitCoins(r.st, userID, amount)
}

func addItem(st *state, userID int64, itemID, quantity int) (bool, error) {
	inv := st.inventory[userID]
	if inv == nil {
		inv = map[int]*domain.InventoryEntry{}
		st.inventory[userID] = inv
	}
	if e, ok := inv[itemID]; ok {
		e.Quantity += quantity
		return false, nil
	}
	inv[itemID] = &domain.InventoryEntry{UserID: userID, ItemID: itemID, Quantity: quantity, FirstObtained: time.Now()}
	return true, nil
}

func removeItem(st *state, userID int64, itemID, quantity int) error {
	inv := st.inventory[userID]
	e, ok := inv[itemID]
	if !ok || e.Quantity < quantity {
		return domain.ErrInsufficientQuantity
	}
	e.Quantity -= quantity
	if e.Quantity == 0 {
		delete(inv, itemID)
	}
	return nil
}

func (r *MemRepo) AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return addItem(r.st, userID, itemID, quantity)
}

func (r *MemRepo) RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeItem(r.st, userID, itemID, quantity)
}

func (r *MemRepo) GetInventory(ctx context.Context, userID int64) ([]domain.InventoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := []domain.InventoryEntry{}
	for _, e := range r.st.inventory[userID] {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemID < entries[j].ItemID })
	return entries, nil
}

func (r *MemRepo) GetInventoryEntry(ctx context.Context, userID int64, itemID int) (*domain.InventoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.st.inventory[userID][itemID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *MemRepo) TopCollectors(ctx context.Context, limit int) ([]domain.CollectorRank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ranks := []domain.CollectorRank{}
	for uid, u := range r.st.users {
		cr := domain.CollectorRank{UserID: uid, Level: u.Level, XP: u.XP}
		for itemID, e := range r.st.inventory[uid] {
			if r.st.items[itemID].Kind == domain.KindCard {
				cr.UniqueCards++
				cr.TotalCards += e.Quantity
			}
		}
		ranks = append(ranks, cr)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].UniqueCards != ranks[j].UniqueCards {
			return ranks[i].UniqueCards > ranks[j].UniqueCards
		}
		if ranks[i].XP != ranks[j].XP {
			return ranks[i].XP > ranks[j].XP
		}
		return ranks[i].UserID < ranks[j].UserID
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks, nil
}

// --- catalog ---

func (r *MemRepo) UpsertItem(ctx context.Context, item domain.Item) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := itemIdentity{item.Kind, item.Category, item.Ordinal, item.Variant}
	if id, ok := r.st.itemIndex[key]; ok {
		item.ID = id
		r.st.items[id] = item
		return id, nil
	}
	r.st.nextItem++
	item.ID = r.st.nextItem
	r.st.items[item.ID] = item
	r.st.itemIndex[key] = item.ID
	return item.ID, nil
}

func (r *MemRepo) GetItemByID(ctx context.Context, id int) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.st.items[id]; ok {
		return &it, nil
	}
	return nil, domain.ErrItemNotFound
}

func (r *MemRepo) GetItemByKey(ctx context.Context, key domain.CardKey) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.st.itemIndex[itemIdentity{domain.KindCard, key.Category, key.Ordinal, key.Variant}]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key.String(), domain.ErrCardNotFound)
	}
	it := r.st.items[id]
	return &it, nil
}

func (r *MemRepo) GetItemsByIDs(ctx context.Context, ids []int) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []domain.Item{}
	for _, id := range ids {
		if it, ok := r.st.items[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (r *MemRepo) ListItems(ctx context.Context, kind domain.ItemKind) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []domain.Item{}
	for _, it := range r.st.items {
		if it.Kind == kind {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemRepo) ListDrawableItems(ctx context.Context) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []domain.Item{}
	for _, it := range r.st.items {
		if it.RarityWeight > 0 {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemRepo) UpsertPuzzle(ctx context.Context, puzzle domain.Puzzle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.st.puzzles {
		if p.Name == puzzle.Name {
			puzzle.ID = id
			r.st.puzzles[id] = puzzle
			return id, nil
		}
	}
	r.st.nextPuzzle++
	puzzle.ID = r.st.nextPuzzle
	r.st.puzzles[puzzle.ID] = puzzle
	return puzzle.ID, nil
}

func (r *MemRepo) GetPuzzleByID(ctx context.Context, id int) (*domain.Puzzle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.st.puzzles[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrPuzzleNotFound
}

func (r *MemRepo) ListPuzzles(ctx context.Context) ([]domain.Puzzle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	puzzles := []domain.Puzzle{}
	for _, p := range r.st.puzzles {
		puzzles = append(puzzles, p)
	}
	sort.Slice(puzzles, func(i, j int) bool { return puzzles[i].ID < puzzles[j].ID })
	return puzzles, nil
}

// --- spawns ---

func hasUnclaimedSolo(st *state, guildID int64) bool {
	for _, s := range st.spawns {
		if s.GuildID == guildID && s.ClaimedBy == nil && s.BatchID == nil {
			return true
		}
	}
	return false
}

func (r *MemRepo) CreateSpawn(ctx context.Context, spawn *domain.Spawn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hasUnclaimedSolo(r.st, spawn.GuildID) {
		return domain.ErrSpawnConflict
	}
	r.st.nextSpawn++
	spawn.ID = r.st.nextSpawn
	cp := *spawn
	r.st.spawns[spawn.ID] = &cp
	return nil
}

func (r *MemRepo) CreateSpawnBatch(ctx context.Context, spawns []*domain.Spawn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spawn := range spawns {
		r.st.nextSpawn++
		spawn.ID = r.st.nextSpawn
		cp := *spawn
		r.st.spawns[spawn.ID] = &cp
	}
	return nil
}

func (r *MemRepo) GetSpawn(ctx context.Context, spawnID int64) (*domain.Spawn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.st.spawns[spawnID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNothingToCatch
}

func (r *MemRepo) CountUnclaimed(ctx context.Context, guildID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.st.spawns {
		if s.GuildID == guildID && s.ClaimedBy == nil {
			n++
		}
	}
	return n, nil
}

func claimLatestSpawn(st *state, guildID, userID int64, now time.Time) (*domain.Spawn, error) {
	var latest *domain.Spawn
	for _, s := range st.spawns {
		if s.GuildID != guildID || s.ClaimedBy != nil {
			continue
		}
		if latest == nil || s.SpawnedAt.After(latest.SpawnedAt) ||
			(s.SpawnedAt.Equal(latest.SpawnedAt) && s.ID > latest.ID) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNothingToCatch
	}
	uid := userID
	ts := now
	latest.ClaimedBy = &uid
	latest.ClaimedAt = &ts
	cp := *latest
	return &cp, nil
}

// --- guild settings ---

func (r *MemRepo) GetSettings(ctx context.Context, guildID int64) (*domain.GuildSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.st.guilds[guildID]; ok {
		cp := *g
		return &cp, nil
	}
	return &domain.GuildSettings{GuildID: guildID}, nil
}

func (r *MemRepo) UpsertSettings(ctx context.Context, settings domain.GuildSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := settings
	r.st.guilds[settings.GuildID] = &cp
	return nil
}

func (r *MemRepo) TouchActivity(ctx context.Context, guildID int64, timestamp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.st.guilds[guildID]
	if !ok {
		g = &domain.GuildSettings{GuildID: guildID}
		r.st.guilds[guildID] = g
	}
	ts := timestamp
	g.LastActivityAt = &ts
	return nil
}

func (r *MemRepo) TryMarkSpawned(ctx context.Context, guildID int64, now time.Time, cooldown time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.st.guilds[guildID]
	if !ok {
		g = &domain.GuildSettings{GuildID: guildID}
		r.st.guilds[guildID] = g
	}
	if g.LastSpawnAt != nil && g.LastSpawnAt.After(now.Add(-cooldown)) {
		return false, nil
	}
	ts := now
	g.LastSpawnAt = &ts
	return true, nil
}

// --- trades ---

func (r *MemRepo) CreateTrade(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, uid := range []int64{initiatorID, partnerID} {
		if _, busy := r.st.participants[participantKey{guildID, uid}]; busy {
			return nil, domain.ErrTradeConflict
		}
	}
	r.st.nextTrade++
	t := &domain.Trade{
		ID:          r.st.nextTrade,
		InitiatorID: initiatorID,
		PartnerID:   partnerID,
		GuildID:     guildID,
		Status:      domain.TradeActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.st.trades[t.ID] = t
	r.st.participants[participantKey{guildID, initiatorID}] = t.ID
	r.st.participants[participantKey{guildID, partnerID}] = t.ID
	cp := *t
	return &cp, nil
}

func (r *MemRepo) GetTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.st.trades[tradeID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTradeNotFound
}

func (r *MemRepo) GetActiveTradeForUser(ctx context.Context, guildID, userID int64) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.st.participants[participantKey{guildID, userID}]; ok {
		cp := *r.st.trades[id]
		return &cp, nil
	}
	return nil, domain.ErrTradeNotFound
}

func (r *MemRepo) GetLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TradeLine{}, r.st.lines[tradeID]...), nil
}

// --- transaction ---

type memTx struct {
	repo *MemRepo
	st   *state
	done bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("%s", domain.ErrMsgTxClosed)
	}
	t.repo.st = t.st
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("%s", domain.ErrMsgTxClosed)
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (t *memTx) GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error) {
	return getUser(t.st, userID)
}

func (t *memTx) CreditCoins(ctx context.Context, userID, amount int64) error {
	return creditCoins(t.st, userID, amount)
}

func (t *memTx) DebitCoins(ctx context.Context, userID, amount int64) error {
	return debitCoins(t.st, userID, amount)
}

func (t *memTx) AddXP(ctx context.Context, userID int64, delta int64) (int64, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.XP += delta
	return u.XP, nil
}

func (t *memTx) PromoteLevel(ctx context.Context, userID int64, level int) error {
	u, ok := t.st.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if level > u.Level {
		u.Level = level
	}
	return nil
}

func (t *memTx) AddItem(ctx context.Context, userID int64, itemID, quantity int) (bool, error) {
	return addItem(t.st, userID, itemID, quantity)
}

func (t *memTx) RemoveItem(ctx context.Context, userID int64, itemID, quantity int) error {
	return removeItem(t.st, userID, itemID, quantity)
}

func (t *memTx) SetCooldown(ctx context.Context, userID int64, action string, timestamp time.Time) error {
	u, ok := t.st.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	ts := timestamp
	switch action {
	case domain.ActionDaily:
		u.LastDaily = &ts
	case domain.ActionClaim:
		u.LastClaim = &ts
	case domain.ActionLeveledClaim:
		u.LastLeveledClaim = &ts
	default:
		return domain.ErrInvalidInput
	}
	return nil
}

func (t *memTx) IncrementCardsCollected(ctx context.Context, userID int64, n int) error {
	if u, ok := t.st.users[userID]; ok {
		u.TotalCardsCollected += n
	}
	return nil
}

func (t *memTx) IncrementPacksOpened(ctx context.Context, userID int64) error {
	if u, ok := t.st.users[userID]; ok {
		u.TotalPacksOpened++
	}
	return nil
}

func (t *memTx) ClaimLatestSpawn(ctx context.Context, guildID, userID int64, now time.Time) (*domain.Spawn, error) {
	return claimLatestSpawn(t.st, guildID, userID, now)
}

func (t *memTx) GetTradeForUpdate(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	if tr, ok := t.st.trades[tradeID]; ok {
		cp := *tr
		return &cp, nil
	}
	return nil, domain.ErrTradeNotFound
}

func (t *memTx) GetTradeLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error) {
	return append([]domain.TradeLine{}, t.st.lines[tradeID]...), nil
}

func (t *memTx) UpsertTradeLine(ctx context.Context, line domain.TradeLine) error {
	lines := t.st.lines[line.TradeID]
	for i, l := range lines {
		if l.UserID == line.UserID && l.ItemID == line.ItemID {
			lines[i].Quantity = line.Quantity
			return nil
		}
	}
	t.st.lines[line.TradeID] = append(lines, line)
	return nil
}

func (t *memTx) ReduceTradeLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error {
	lines := t.st.lines[tradeID]
	for i, l := range lines {
		if l.UserID == userID && l.ItemID == itemID {
			if l.Quantity <= quantity {
				t.st.lines[tradeID] = append(lines[:i], lines[i+1:]...)
			} else {
				lines[i].Quantity -= quantity
			}
			return nil
		}
	}
	return nil
}

func (t *memTx) ResetTradeLocks(ctx context.Context, tradeID int64) error {
	tr, ok := t.st.trades[tradeID]
	if !ok {
		return domain.ErrTradeNotFound
	}
	tr.InitiatorLockedAt, tr.PartnerLockedAt = nil, nil
	tr.InitiatorConfirmed, tr.PartnerConfirmed = false, false
	tr.Status = domain.TradeActive
	tr.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetTradeLock(ctx context.Context, tradeID int64, initiator bool, timestamp time.Time) error {
	tr, ok := t.st.trades[tradeID]
	if !ok {
		return domain.ErrTradeNotFound
	}
	ts := timestamp
	if initiator {
		tr.InitiatorLockedAt = &ts
	} else {
		tr.PartnerLockedAt = &ts
	}
	tr.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetTradeConfirmed(ctx context.Context, tradeID int64, initiator bool) error {
	tr, ok := t.st.trades[tradeID]
	if !ok {
		return domain.ErrTradeNotFound
	}
	if initiator {
		tr.InitiatorConfirmed = true
	} else {
		tr.PartnerConfirmed = true
	}
	tr.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetTradeStatus(ctx context.Context, tradeID int64, status domain.TradeStatus) error {
	tr, ok := t.st.trades[tradeID]
	if !ok {
		return domain.ErrTradeNotFound
	}
	tr.Status = status
	tr.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) ClearTradeParticipants(ctx context.Context, tradeID int64) error {
	for k, id := range t.st.participants {
		if id == tradeID {
			delete(t.st.participants, k)
		}
	}
	return nil
}

func (t *memTx) RecordPuzzleCompletion(ctx context.Context, userID int64, puzzleID int) (int, error) {
	m := t.st.completed[userID]
	if m == nil {
		m = map[int]int{}
		t.st.completed[userID] = m
	}
	m[puzzleID]++
	return m[puzzleID], nil
}

// --- puzzles ---

func (r *MemRepo) GetProgress(ctx context.Context, userID int64) ([]domain.PuzzleProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	progress := []domain.PuzzleProgress{}
	puzzleIDs := make([]int, 0, len(r.st.puzzles))
	for id := range r.st.puzzles {
		puzzleIDs = append(puzzleIDs, id)
	}
	sort.Ints(puzzleIDs)
	for _, pid := range puzzleIDs {
		p := r.st.puzzles[pid]
		pp := domain.PuzzleProgress{
			Puzzle:         p,
			TotalPieces:    p.PiecesRequired,
			TimesCompleted: r.st.completed[userID][pid],
		}
		for itemID := range r.st.inventory[userID] {
			it := r.st.items[itemID]
			if it.Kind == domain.KindPuzzlePiece && it.PuzzleID != nil && *it.PuzzleID == pid {
				pp.OwnedPieces++
			}
		}
		progress = append(progress, pp)
	}
	return progress, nil
}

func (r *MemRepo) GetOwnedPieces(ctx context.Context, userID int64, puzzleID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int{}
	for itemID := range r.st.inventory[userID] {
		it := r.st.items[itemID]
		if it.Kind == domain.KindPuzzlePiece && it.PuzzleID != nil && *it.PuzzleID == puzzleID {
			ids = append(ids, itemID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}
