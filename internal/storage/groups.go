package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

func (q *Queries) CreateGroup(ctx context.Context, g core.Group) (core.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Plan == "" {
		g.Plan = core.PlanFree
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO account_groups (id, name, plan, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Plan), formatTimestamp(g.CreatedAt))
	if err != nil {
		return core.Group{}, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

func (q *Queries) GetGroup(ctx context.Context, id string) (core.Group, error) {
	var (
		g         core.Group
		plan      string
		createdAt string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, plan, created_at FROM account_groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &plan, &createdAt)
	if err != nil {
		return core.Group{}, notFound(err)
	}
	g.Plan = core.Plan(plan)
	if g.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Group{}, err
	}
	return g, nil
}

func (q *Queries) SetGroupPlan(ctx context.Context, groupID string, plan core.Plan) error {
	res, err := q.db.ExecContext(ctx, `UPDATE account_groups SET plan = ? WHERE id = ?`, string(plan), groupID)
	if err != nil {
		return fmt.Errorf("update group plan: %w", err)
	}
	return expectOne(res)
}

// ListGroupIDs returns every group id in creation order.
func (q *Queries) ListGroupIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id FROM account_groups ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) AddMember(ctx context.Context, groupID, userID string, role core.MemberRole) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		groupID, userID, string(role), formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (q *Queries) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) ListMembers(ctx context.Context, groupID string) ([]core.Member, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT m.user_id, m.group_id, u.name, u.email, m.role, m.joined_at
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.joined_at, u.name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var (
			m        core.Member
			role     string
			joinedAt string
		)
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Name, &m.Email, &role, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = core.MemberRole(role)
		if m.JoinedAt, err = parseTimestamp(joinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetGroupState loads the monthly evaluation state of a group.
func (q *Queries) GetGroupState(ctx context.Context, groupID string) (core.GroupState, error) {
	var (
		st   = core.GroupState{GroupID: groupID}
		last sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT consecutive_positive_months, last_evaluated_month FROM account_groups WHERE id = ?`, groupID).
		Scan(&st.ConsecutivePositiveMonths, &last)
	if err != nil {
		return core.GroupState{}, notFound(err)
	}
	if last.Valid {
		if st.LastEvaluatedMonth, err = core.ParseMonth(last.String); err != nil {
			return core.GroupState{}, err
		}
	}
	return st, nil
}

func (q *Queries) UpdateGroupState(ctx context.Context, st core.GroupState) error {
	var last sql.NullString
	if !st.LastEvaluatedMonth.IsZero() {
		last = sql.NullString{String: st.LastEvaluatedMonth.String(), Valid: true}
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE account_groups SET consecutive_positive_months = ?, last_evaluated_month = ? WHERE id = ?`,
		st.ConsecutivePositiveMonths, last, st.GroupID)
	if err != nil {
		return fmt.Errorf("update group state: %w", err)
	}
	return expectOne(res)
}
