package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

const goalColumns = `id, group_id, title, target_cents, current_cents, status, due_date, created_at, completed_at`

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g              core.Goal
		target, cur    int64
		status         string
		due, completed sql.NullString
		createdAt      string
	)
	if err := row.Scan(&g.ID, &g.GroupID, &g.Title, &target, &cur, &status, &due, &createdAt, &completed); err != nil {
		return core.Goal{}, err
	}
	g.Target = core.MoneyFromCents(target)
	g.Current = core.MoneyFromCents(cur)
	g.Status = core.GoalStatus(status)
	var err error
	if g.DueDate, err = parseNullDate(due); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Goal{}, err
	}
	if g.CompletedAt, err = parseNullTimestamp(completed); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (q *Queries) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.GroupID, g.Title, g.Target.Cents(), g.Current.Cents(), string(g.Status),
		nullDate(g.DueDate), formatTimestamp(g.CreatedAt), nullTimestamp(g.CompletedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (q *Queries) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, notFound(err)
	}
	return g, nil
}

// UpdateGoalProgress persists balance and lifecycle fields of g.
// The update only applies while the stored goal is still active, so a goal
// can transition out of active at most once.
func (q *Queries) UpdateGoalProgress(ctx context.Context, g core.Goal) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE goals SET current_cents = ?, status = ?, completed_at = ?
		WHERE id = ? AND status = 'active'`,
		g.Current.Cents(), string(g.Status), nullTimestamp(g.CompletedAt), g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if err := expectOne(res); err != nil {
		return core.ErrGoalNotActive
	}
	return nil
}

func (q *Queries) ListGoals(ctx context.Context, groupID string) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE group_id = ? ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetActiveGoal returns the most recently created active goal of a group.
func (q *Queries) GetActiveGoal(ctx context.Context, groupID string) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE group_id = ? AND status = 'active'
		 ORDER BY created_at DESC LIMIT 1`, groupID)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, notFound(err)
	}
	return g, nil
}
