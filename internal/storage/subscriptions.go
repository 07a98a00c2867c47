package storage

import (
	"context"
	"fmt"
	"time"

	"clarify/internal/core"
)

// GetSubscription returns the group's subscription, or core.ErrNotFound when
// the group never had one.
func (q *Queries) GetSubscription(ctx context.Context, groupID string) (core.Subscription, error) {
	var (
		s         = core.Subscription{GroupID: groupID}
		expiresAt string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT status, expires_at FROM subscriptions WHERE group_id = ?`, groupID).Scan(&s.Status, &expiresAt)
	if err != nil {
		return core.Subscription{}, notFound(err)
	}
	if s.ExpiresAt, err = parseTimestamp(expiresAt); err != nil {
		return core.Subscription{}, err
	}
	return s, nil
}

func (q *Queries) UpsertSubscription(ctx context.Context, s core.Subscription) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO subscriptions (group_id, status, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (group_id) DO UPDATE SET
			status = excluded.status,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		s.GroupID, s.Status, formatTimestamp(s.ExpiresAt), formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// CountPremiumGroups counts subscriptions still running at now.
func (q *Queries) CountPremiumGroups(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE expires_at > ?`, formatTimestamp(now)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count premium groups: %w", err)
	}
	return n, nil
}

func (q *Queries) RecordAIUsage(ctx context.Context, id, groupID, userID string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO ai_usages (id, group_id, user_id, used_at) VALUES (?, ?, ?, ?)`,
		id, groupID, userID, formatTimestamp(at))
	if err != nil {
		return fmt.Errorf("insert ai usage: %w", err)
	}
	return nil
}

// CountAIUsageSince counts a group's AI requests strictly after since.
func (q *Queries) CountAIUsageSince(ctx context.Context, groupID string, since time.Time) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ai_usages WHERE group_id = ? AND used_at > ?`,
		groupID, formatTimestamp(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ai usage: %w", err)
	}
	return n, nil
}
