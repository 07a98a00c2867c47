package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, active_group_id, created_at`

func scanUser(row rowScanner) (core.User, error) {
	var (
		u         core.User
		active    sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &active, &createdAt); err != nil {
		return core.User{}, err
	}
	u.ActiveGroupID = active.String
	var err error
	if u.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// CreateUser inserts a user. The email is stored lower-cased.
func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, nullString(u.ActiveGroupID), formatTimestamp(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (q *Queries) GetUser(ctx context.Context, id string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

func (q *Queries) SetActiveGroup(ctx context.Context, userID, groupID string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET active_group_id = ? WHERE id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("update active group: %w", err)
	}
	return expectOne(res)
}

// CountUsersSince counts users created at or after since. A zero since counts everyone.
func (q *Queries) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE created_at >= ?`, formatTimestamp(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// The portal attributes each user to their active group, falling back to the
// first group they joined.
const userOverviewQuery = `
	SELECT u.id, u.name, u.email, u.password_hash, u.active_group_id, u.created_at,
	       COALESCE(g.id, ''), COALESCE(g.name, ''),
	       CASE WHEN s.expires_at > ? THEN 'premium' ELSE 'free' END
	FROM users u
	LEFT JOIN account_groups g ON g.id = COALESCE(u.active_group_id,
		(SELECT m.group_id FROM group_members m WHERE m.user_id = u.id ORDER BY m.joined_at LIMIT 1))
	LEFT JOIN subscriptions s ON s.group_id = g.id`

func scanUserOverview(row rowScanner) (core.UserOverview, error) {
	var (
		o         core.UserOverview
		active    sql.NullString
		createdAt string
		plan      string
	)
	if err := row.Scan(&o.User.ID, &o.User.Name, &o.User.Email, &o.User.PasswordHash, &active, &createdAt,
		&o.GroupID, &o.GroupName, &plan); err != nil {
		return core.UserOverview{}, err
	}
	o.User.ActiveGroupID = active.String
	o.Plan = core.Plan(plan)
	var err error
	if o.User.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.UserOverview{}, err
	}
	return o, nil
}

// ListUserOverviews returns every user, newest first, with their group's plan at now.
func (q *Queries) ListUserOverviews(ctx context.Context, now time.Time) ([]core.UserOverview, error) {
	rows, err := q.db.QueryContext(ctx, userOverviewQuery+` ORDER BY u.created_at DESC`, formatTimestamp(now))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.UserOverview
	for rows.Next() {
		o, err := scanUserOverview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) GetUserOverview(ctx context.Context, id string, now time.Time) (core.UserOverview, error) {
	row := q.db.QueryRowContext(ctx, userOverviewQuery+` WHERE u.id = ?`, formatTimestamp(now), id)
	o, err := scanUserOverview(row)
	if err != nil {
		return core.UserOverview{}, notFound(err)
	}
	return o, nil
}

// UpdateUserProfile stores name and email. The email is stored lower-cased.
func (q *Queries) UpdateUserProfile(ctx context.Context, id, name, email string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET name = ?, email = ? WHERE id = ?`,
		name, strings.ToLower(strings.TrimSpace(email)), id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

func (q *Queries) SetUserPassword(ctx context.Context, id, hash string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOne(res)
}
