package storage

import (
	"context"
	"fmt"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

const movementColumns = `id, group_id, responsible_id, type, description, amount_cents, transaction_date, created_at`

func scanMovement(row rowScanner) (core.Movement, error) {
	var (
		m         core.Movement
		typ       string
		cents     int64
		date      string
		createdAt string
	)
	if err := row.Scan(&m.ID, &m.GroupID, &m.ResponsibleID, &typ, &m.Description, &cents, &date, &createdAt); err != nil {
		return core.Movement{}, err
	}
	m.Type = core.MovementType(typ)
	m.Amount = core.MoneyFromCents(cents)
	var err error
	if m.Date, err = core.ParseDate(date); err != nil {
		return core.Movement{}, err
	}
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Movement{}, err
	}
	return m, nil
}

func (q *Queries) CreateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.ResponsibleID, string(m.Type), m.Description,
		m.Amount.Cents(), m.Date.String(), formatTimestamp(m.CreatedAt))
	if err != nil {
		return core.Movement{}, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}

func (q *Queries) GetMovement(ctx context.Context, id string) (core.Movement, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	m, err := scanMovement(row)
	if err != nil {
		return core.Movement{}, notFound(err)
	}
	return m, nil
}

func (q *Queries) UpdateMovement(ctx context.Context, m core.Movement) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE movements
		SET responsible_id = ?, type = ?, description = ?, amount_cents = ?, transaction_date = ?
		WHERE id = ?`,
		m.ResponsibleID, string(m.Type), m.Description, m.Amount.Cents(), m.Date.String(), m.ID)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	return expectOne(res)
}

func (q *Queries) DeleteMovement(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return expectOne(res)
}

// windowClause renders the transaction_date bounds of w.
func windowClause(w core.Window) (string, []interface{}) {
	clause := ""
	var args []interface{}
	if !w.From.IsZero() {
		clause += ` AND transaction_date >= ?`
		args = append(args, w.From.String())
	}
	if !w.To.IsZero() {
		clause += ` AND transaction_date < ?`
		args = append(args, w.To.String())
	}
	return clause, args
}

// ListMovements returns a group's movements inside w, newest first.
// A limit of zero or less returns every row.
func (q *Queries) ListMovements(ctx context.Context, groupID string, w core.Window, limit int) ([]core.Movement, error) {
	clause, wargs := windowClause(w)
	query := `SELECT ` + movementColumns + ` FROM movements WHERE group_id = ?` + clause +
		` ORDER BY transaction_date DESC, created_at DESC`
	args := append([]interface{}{groupID}, wargs...)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SumMovements adds up the amounts of one movement type inside w.
// It returns zero when no row matches.
func (q *Queries) SumMovements(ctx context.Context, groupID string, t core.MovementType, w core.Window) (core.Money, error) {
	clause, wargs := windowClause(w)
	args := append([]interface{}{groupID, string(t)}, wargs...)

	var cents int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM movements WHERE group_id = ? AND type = ?`+clause,
		args...).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s movements: %w", t, err)
	}
	return core.MoneyFromCents(cents), nil
}

// ListMovementsByResponsible returns the movements userID is responsible for
// across all groups, newest first.
func (q *Queries) ListMovementsByResponsible(ctx context.Context, userID string, limit int) ([]core.Movement, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE responsible_id = ?
		 ORDER BY transaction_date DESC, created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements by responsible: %w", err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
