package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/eventlog"
)

// LogEvent stores one event row with its payload serialized as JSONB
func (r *Repository) LogEvent(ctx context.Context, eventType, version string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO event_log (event_type, version, payload)
		VALUES ($1, $2, $3)
	`, eventType, version, raw)
	if err != nil {
		return fmt.Errorf("failed to insert event log row: %w", err)
	}
	return nil
}

// RecentEvents returns the newest events, newest first
func (r *Repository) RecentEvents(ctx context.Context, eventType string, limit int) ([]eventlog.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, version, payload, created_at
		FROM event_log
		WHERE ($1 = '' OR event_type = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query event log: %w", err)
	}
	defer rows.Close()

	var entries []eventlog.Entry
	for rows.Next() {
		var e eventlog.Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.EventType, &e.Version, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event log row: %w", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CleanupOldEvents deletes rows older than the retention window
func (r *Repository) CleanupOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM event_log WHERE created_at < $1
	`, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up event log: %w", err)
	}
	return tag.RowsAffected(), nil
}
