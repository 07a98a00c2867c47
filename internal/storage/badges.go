package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

const badgeColumns = `id, group_id, tier, description, issued_at`

func scanBadge(row rowScanner) (core.Badge, error) {
	var (
		b        core.Badge
		tier     string
		issuedAt string
	)
	if err := row.Scan(&b.ID, &b.GroupID, &tier, &b.Description, &issuedAt); err != nil {
		return core.Badge{}, err
	}
	b.Tier = core.BadgeTier(tier)
	var err error
	if b.IssuedAt, err = parseTimestamp(issuedAt); err != nil {
		return core.Badge{}, err
	}
	return b, nil
}

func (q *Queries) queryBadges(ctx context.Context, query string, args ...interface{}) ([]core.Badge, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertBadge appends a badge and returns it with its assigned id.
func (q *Queries) InsertBadge(ctx context.Context, b core.Badge) (core.Badge, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO badges (`+badgeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.GroupID, string(b.Tier), b.Description, formatTimestamp(b.IssuedAt))
	if err != nil {
		return core.Badge{}, fmt.Errorf("insert badge: %w", err)
	}
	return b, nil
}

// ListBadges returns every badge of a group, newest first.
func (q *Queries) ListBadges(ctx context.Context, groupID string) ([]core.Badge, error) {
	badges, err := q.queryBadges(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE group_id = ? ORDER BY issued_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// ListBadgesIssuedAfter returns a group's badges issued strictly after since.
func (q *Queries) ListBadgesIssuedAfter(ctx context.Context, groupID string, since time.Time) ([]core.Badge, error) {
	badges, err := q.queryBadges(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE group_id = ? AND issued_at > ? ORDER BY issued_at`,
		groupID, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("list recent badges: %w", err)
	}
	return badges, nil
}

// ListUnexportedBadges returns up to limit badges not yet exported, oldest first.
func (q *Queries) ListUnexportedBadges(ctx context.Context, limit int) ([]core.Badge, error) {
	badges, err := q.queryBadges(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE exported_at IS NULL ORDER BY issued_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported badges: %w", err)
	}
	return badges, nil
}

func (q *Queries) MarkBadgeExported(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE badges SET exported_at = ? WHERE id = ? AND exported_at IS NULL`, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("mark badge exported: %w", err)
	}
	return expectOne(res)
}

// IsBadgeExported reports whether the badge was already written to the export sink.
func (q *Queries) IsBadgeExported(ctx context.Context, id string) (bool, error) {
	var exported sql.NullString
	err := q.db.QueryRowContext(ctx, `SELECT exported_at FROM badges WHERE id = ?`, id).Scan(&exported)
	if err != nil {
		return false, notFound(err)
	}
	return exported.Valid, nil
}

func (q *Queries) CountBadges(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM badges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count badges: %w", err)
	}
	return n, nil
}
