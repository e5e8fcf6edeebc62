package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

const userColumns = `user_id, coins, xp, level, total_cards_collected, total_packs_opened,
	last_daily, last_claim, last_leveled_claim, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Coins, &u.XP, &u.Level, &u.TotalCardsCollected, &u.TotalPacksOpened,
		&u.LastDaily, &u.LastClaim, &u.LastLeveledClaim, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func getUser(ctx context.Context, q querier, userID int64, forUpdate bool) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanUser(q.QueryRow(ctx, query, userID))
}

func creditCoins(ctx context.Context, q querier, userID, amount int64) error {
	tag, err := q.Exec(ctx, `UPDATE users SET coins = coins + $2 WHERE user_id = $1`, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit coins: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// debitCoins checks the balance and decrements in one statement so two
// concurrent debits can never both succeed against one balance.
func debitCoins(ctx context.Context, q querier, userID, amount int64) error {
	tag, err := q.Exec(ctx,
		`UPDATE users SET coins = coins - $2 WHERE user_id = $1 AND coins >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit coins: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func addXP(ctx context.Context, q querier, userID int64, delta int64) (int64, error) {
	var total int64
	err := q.QueryRow(ctx,
		`UPDATE users SET xp = xp + $2 WHERE user_id = $1 RETURNING xp`,
		userID, delta).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}
	return total, nil
}

// promoteLevel only ever raises the cached level, so a stale writer can
// never demote a user.
func promoteLevel(ctx context.Context, q querier, userID int64, level int) error {
	_, err := q.Exec(ctx,
		`UPDATE users SET level = $2 WHERE user_id = $1 AND level < $2`,
		userID, level)
	if err != nil {
		return fmt.Errorf("failed to promote level: %w", err)
	}
	return nil
}

func setCooldown(ctx context.Context, q querier, userID int64, action string, timestamp time.Time) error {
	var col string
	switch action {
	case domain.ActionDaily:
		col = colLastDaily
	case domain.ActionClaim:
		col = colLastClaim
	case domain.ActionLeveledClaim:
		col = colLastLeveledClaim
	default:
		return fmt.Errorf("unknown cooldown action %q: %w", action, domain.ErrInvalidInput)
	}
	tag, err := q.Exec(ctx,
		`UPDATE users SET `+col+` = $2 WHERE user_id = $1`,
		userID, timestamp)
	if err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func incrementCardsCollected(ctx context.Context, q querier, userID int64, n int) error {
	_, err := q.Exec(ctx,
		`UPDATE users SET total_cards_collected = total_cards_collected + $2 WHERE user_id = $1`,
		userID, n)
	if err != nil {
		return fmt.Errorf("failed to increment cards collected: %w", err)
	}
	return nil
}

func incrementPacksOpened(ctx context.Context, q querier, userID int64) error {
	_, err := q.Exec(ctx,
		`UPDATE users SET total_packs_opened = total_packs_opened + 1 WHERE user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("failed to increment packs opened: %w", err)
	}
	return nil
}

// EnsureUser creates the user row on first reference and returns it
func (r *Repository) EnsureUser(ctx context.Context, userID int64) (*domain.User, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return getUser(ctx, r.db, userID, false)
}

// GetUser fetches a user by ID
func (r *Repository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return getUser(ctx, r.db, userID, false)
}

// CreditCoins adds coins to a user's balance
func (r *Repository) CreditCoins(ctx context.Context, userID, amount int64) error {
	return creditCoins(ctx, r.db, userID, amount)
}

// DebitCoins removes coins from a user's balance if sufficient
func (r *Repository) DebitCoins(ctx context.Context, userID, amount int64) error {
	return debitCoins(ctx, r.db, userID, amount)
}

// TopCollectors returns the collection leaderboard
func (r *Repository) TopCollectors(ctx context.Context, limit int) ([]domain.CollectorRank, error) {
	query := `
		SELECT u.user_id, u.level, u.xp,
			COUNT(i.item_id) FILTER (WHERE it.kind = 'card') AS unique_cards,
			COALESCE(SUM(i.quantity) FILTER (WHERE it.kind = 'card'), 0) AS total_cards
		FROM users u
		LEFT JOIN inventory i ON i.user_id = u.user_id
		LEFT JOIN items it ON it.item_id = i.item_id
		GROUP BY u.user_id
		ORDER BY unique_cards DESC, u.xp DESC, u.user_id
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top collectors: %w", err)
	}
	defer rows.Close()

	ranks := []domain.CollectorRank{}
	for rows.Next() {
		var cr domain.CollectorRank
		if err := rows.Scan(&cr.UserID, &cr.Level, &cr.XP, &cr.UniqueCards, &cr.TotalCards); err != nil {
			return nil, fmt.Errorf("failed to scan collector rank: %w", err)
		}
		cr.Rank = len(ranks) + 1
		ranks = append(ranks, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top collectors: %w", err)
	}
	return ranks, nil
}
