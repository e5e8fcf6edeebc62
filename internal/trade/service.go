// Package trade implements the two-party trade state machine:
// Active -> Locked -> {Completed, Cancelled}. Offers are only re-verified at
// execution time; a shortfall cancels the trade without moving anything.
package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/repository"
)

// Log message constants
const (
	LogMsgTradeCreated     = "Trade created"
	LogMsgTradeLocked      = "Trade locked"
	LogMsgTradeCompleted   = "Trade completed"
	LogMsgTradeInvalidated = "Trade invalidated"
	LogMsgTradeCancelled   = "Trade cancelled"
)

// Repository defines the interface for data access required by the trade service
type Repository interface {
	CreateTrade(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error)
	GetTrade(ctx context.Context, tradeID int64) (*domain.Trade, error)
	GetActiveTradeForUser(ctx context.Context, guildID, userID int64) (*domain.Trade, error)
	GetLines(ctx context.Context, tradeID int64) ([]domain.TradeLine, error)

	EnsureUser(ctx context.Context, userID int64) (*domain.User, error)

	BeginTx(ctx context.Context) (repository.Tx, error)
}

// View is a trade with its offer lines, as shown to participants.
type View struct {
	Trade domain.Trade       `json:"trade"`
	Lines []domain.TradeLine `json:"lines"`
}

// Service defines the interface for trade operations
type Service interface {
	Create(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error)
	Get(ctx context.Context, guildID, userID int64) (*View, error)
	// AddLine sets the quantity of an item offered by userID. Resets both
	// sides' locks so changed offers get re-reviewed.
	AddLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error
	// RemoveLine withdraws up to quantity copies from an offer line. The
	// quantity clamps at zero, deleting the line; withdrawing from an
	// absent line is a no-op.
	RemoveLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error
	Lock(ctx context.Context, tradeID, userID int64) (*domain.Trade, error)
	// Confirm records the caller's confirmation; when both sides have
	// confirmed it executes the exchange atomically.
	Confirm(ctx context.Context, tradeID, userID int64) (*domain.Trade, error)
	Cancel(ctx context.Context, tradeID, userID int64) error
}

type service struct {
	repo Repository
	bus  event.Bus
	now  func() time.Time
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService creates a new trade service
func NewService(repo Repository, bus event.Bus, opts ...Option) Service {
	s := &service{repo: repo, bus: bus, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, guildID, initiatorID, partnerID int64) (*domain.Trade, error) {
	if initiatorID == partnerID {
		return nil, fmt.Errorf("cannot trade with yourself: %w", domain.ErrInvalidInput)
	}
	for _, uid := range []int64{initiatorID, partnerID} {
		if _, err := s.repo.EnsureUser(ctx, uid); err != nil {
			return nil, fmt.Errorf("failed to ensure user: %w", err)
		}
	}

	trade, err := s.repo.CreateTrade(ctx, guildID, initiatorID, partnerID)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgTradeCreated,
		"trade_id", trade.ID, "guild_id", guildID,
		"initiator_id", initiatorID, "partner_id", partnerID)
	return trade, nil
}

func (s *service) Get(ctx context.Context, guildID, userID int64) (*View, error) {
	trade, err := s.repo.GetActiveTradeForUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade lines: %w", err)
	}
	return &View{Trade: *trade, Lines: lines}, nil
}

func (s *service) AddLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.guardMutable(ctx, tx, tradeID, userID)
	if err != nil {
		return err
	}

	line := domain.TradeLine{TradeID: trade.ID, UserID: userID, ItemID: itemID, Quantity: quantity}
	if err := tx.UpsertTradeLine(ctx, line); err != nil {
		return fmt.Errorf("failed to save trade line: %w", err)
	}
	if err := tx.ResetTradeLocks(ctx, trade.ID); err != nil {
		return fmt.Errorf("failed to reset trade locks: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *service) RemoveLine(ctx context.Context, tradeID, userID int64, itemID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := s.guardMutable(ctx, tx, tradeID, userID)
	if err != nil {
		return err
	}

	if err := tx.ReduceTradeLine(ctx, trade.ID, userID, itemID, quantity); err != nil {
		return fmt.Errorf("failed to reduce trade line: %w", err)
	}
	if err := tx.ResetTradeLocks(ctx, trade.ID); err != nil {
		return fmt.Errorf("failed to reset trade locks: %w", err)
	}
	return tx.Commit(ctx)
}

// guardMutable loads the trade for update and checks the caller may still
// edit their offer. A locked caller's offer is frozen until the counterpart's
// edit resets the locks.
func (s *service) guardMutable(ctx context.Context, tx repository.Tx, tradeID, userID int64) (*domain.Trade, error) {
	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	if trade.Status != domain.TradeActive {
		return nil, fmt.Errorf("trade is %s: %w", trade.Status, domain.ErrInvalidTradeState)
	}
	if trade.LockedAt(userID) != nil {
		return nil, domain.ErrAlreadyLocked
	}
	return trade, nil
}

func (s *service) Lock(ctx context.Context, tradeID, userID int64) (*domain.Trade, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	if trade.Status != domain.TradeActive {
		return nil, fmt.Errorf("trade is %s: %w", trade.Status, domain.ErrInvalidTradeState)
	}
	if trade.LockedAt(userID) != nil {
		return nil, domain.ErrAlreadyLocked
	}

	lines, err := tx.GetTradeLines(ctx, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade lines: %w", err)
	}
	offered := false
	for _, l := range lines {
		if l.UserID == userID {
			offered = true
			break
		}
	}
	if !offered {
		return nil, domain.ErrEmptyOffer
	}

	now := s.now()
	// The first locker gets a settle window to review any last-second offer
	// before the second lock can land.
	if other := trade.LockedAt(trade.Counterpart(userID)); other != nil {
		if elapsed := now.Sub(*other); elapsed < domain.TradeLockDelay {
			return nil, &domain.LockTooSoonError{Remaining: domain.TradeLockDelay - elapsed}
		}
	}

	initiator := userID == trade.InitiatorID
	if err := tx.SetTradeLock(ctx, trade.ID, initiator, now); err != nil {
		return nil, fmt.Errorf("failed to set trade lock: %w", err)
	}
	if initiator {
		trade.InitiatorLockedAt = &now
	} else {
		trade.PartnerLockedAt = &now
	}

	if trade.BothLocked() {
		if err := tx.SetTradeStatus(ctx, trade.ID, domain.TradeLocked); err != nil {
			return nil, fmt.Errorf("failed to set trade status: %w", err)
		}
		trade.Status = domain.TradeLocked
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	logger.FromContext(ctx).Info(LogMsgTradeLocked,
		"trade_id", trade.ID, "user_id", userID, "both_locked", trade.BothLocked())
	return trade, nil
}

func (s *service) Confirm(ctx context.Context, tradeID, userID int64) (*domain.Trade, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	if trade.Status != domain.TradeLocked {
		return nil, fmt.Errorf("trade is %s: %w", trade.Status, domain.ErrInvalidTradeState)
	}
	if trade.Confirmed(userID) {
		return nil, fmt.Errorf("already confirmed: %w", domain.ErrInvalidTradeState)
	}

	initiator := userID == trade.InitiatorID
	if err := tx.SetTradeConfirmed(ctx, trade.ID, initiator); err != nil {
		return nil, fmt.Errorf("failed to confirm trade: %w", err)
	}
	if initiator {
		trade.InitiatorConfirmed = true
	} else {
		trade.PartnerConfirmed = true
	}

	if !trade.BothConfirmed() {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
		}
		return trade, nil
	}

	lines, err := tx.GetTradeLines(ctx, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade lines: %w", err)
	}

	shortfall, err := s.settle(ctx, tx, trade, lines)
	if err != nil {
		return nil, err
	}
	if shortfall != nil {
		repository.SafeRollback(ctx, tx)
		if err := s.invalidate(ctx, trade, shortfall); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("user %d cannot cover item %d: %w",
			shortfall.UserID, shortfall.ItemID, domain.ErrTradeInvalidated)
	}

	if err := tx.SetTradeStatus(ctx, trade.ID, domain.TradeCompleted); err != nil {
		return nil, fmt.Errorf("failed to set trade status: %w", err)
	}
	if err := tx.ClearTradeParticipants(ctx, trade.ID); err != nil {
		return nil, fmt.Errorf("failed to release trade participants: %w", err)
	}
	trade.Status = domain.TradeCompleted

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	evt := event.NewTradeCompletedEvent(trade.ID, trade.GuildID, trade.InitiatorID, trade.PartnerID, len(lines))
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish trade completed event", "error", err, "trade_id", trade.ID)
	}
	logger.FromContext(ctx).Info(LogMsgTradeCompleted, "trade_id", trade.ID, "lines", len(lines))
	return trade, nil
}

// settle moves every offered line to its counterparty. Returns the first line
// whose owner can no longer cover it, nil when the exchange succeeded.
func (s *service) settle(ctx context.Context, tx repository.Tx, trade *domain.Trade, lines []domain.TradeLine) (*domain.TradeLine, error) {
	for i := range lines {
		l := lines[i]
		// Conditional decrement re-verifies the offer against the live
		// ledger.
		if err := tx.RemoveItem(ctx, l.UserID, l.ItemID, l.Quantity); err != nil {
			if errors.Is(err, domain.ErrInsufficientQuantity) {
				return &l, nil
			}
			return nil, fmt.Errorf("failed to remove traded item: %w", err)
		}
	}
	for _, l := range lines {
		if _, err := tx.AddItem(ctx, trade.Counterpart(l.UserID), l.ItemID, l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to deliver traded item: %w", err)
		}
	}
	return nil, nil
}

// invalidate cancels a trade whose offers could not be covered at execution.
// Runs in its own transaction since the settle attempt was rolled back.
func (s *service) invalidate(ctx context.Context, trade *domain.Trade, shortfall *domain.TradeLine) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if _, err := tx.GetTradeForUpdate(ctx, trade.ID); err != nil {
		return err
	}
	if err := tx.SetTradeStatus(ctx, trade.ID, domain.TradeCancelled); err != nil {
		return fmt.Errorf("failed to cancel invalidated trade: %w", err)
	}
	if err := tx.ClearTradeParticipants(ctx, trade.ID); err != nil {
		return fmt.Errorf("failed to release trade participants: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	evt := event.NewTradeInvalidatedEvent(trade.ID, trade.GuildID, shortfall.UserID, shortfall.ItemID)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Error("Failed to publish trade invalidated event", "error", err, "trade_id", trade.ID)
	}
	logger.FromContext(ctx).Warn(LogMsgTradeInvalidated,
		"trade_id", trade.ID, "user_id", shortfall.UserID, "item_id", shortfall.ItemID)
	return nil
}

func (s *service) Cancel(ctx context.Context, tradeID, userID int64) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	trade, err := tx.GetTradeForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if !trade.IsParticipant(userID) {
		return domain.ErrNotParticipant
	}
	if trade.Status.Terminal() {
		return fmt.Errorf("trade is %s: %w", trade.Status, domain.ErrInvalidTradeState)
	}

	if err := tx.SetTradeStatus(ctx, trade.ID, domain.TradeCancelled); err != nil {
		return fmt.Errorf("failed to cancel trade: %w", err)
	}
	if err := tx.ClearTradeParticipants(ctx, trade.ID); err != nil {
		return fmt.Errorf("failed to release trade participants: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", repository.ErrMsgFailedToCommitTx, err)
	}

	logger.FromContext(ctx).Info(LogMsgTradeCancelled, "trade_id", trade.ID, "user_id", userID)
	return nil
}
