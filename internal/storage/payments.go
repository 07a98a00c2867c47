package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clarify/internal/core"

	"github.com/google/uuid"
)

const paymentColumns = `id, group_id, description, amount_cents, due_date, status, paid_at, created_at`

func scanPayment(row rowScanner) (core.ScheduledPayment, error) {
	var (
		p         core.ScheduledPayment
		cents     int64
		due       string
		status    string
		paidAt    sql.NullString
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.GroupID, &p.Description, &cents, &due, &status, &paidAt, &createdAt); err != nil {
		return core.ScheduledPayment{}, err
	}
	p.Amount = core.MoneyFromCents(cents)
	p.Status = core.PaymentStatus(status)
	var err error
	if p.DueDate, err = core.ParseDate(due); err != nil {
		return core.ScheduledPayment{}, err
	}
	if p.PaidAt, err = parseNullTimestamp(paidAt); err != nil {
		return core.ScheduledPayment{}, err
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.ScheduledPayment{}, err
	}
	return p, nil
}

func (q *Queries) CreateScheduledPayment(ctx context.Context, p core.ScheduledPayment) (core.ScheduledPayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.PaymentPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO scheduled_payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.GroupID, p.Description, p.Amount.Cents(), p.DueDate.String(), string(p.Status),
		nullTimestamp(p.PaidAt), formatTimestamp(p.CreatedAt))
	if err != nil {
		return core.ScheduledPayment{}, fmt.Errorf("insert scheduled payment: %w", err)
	}
	return p, nil
}

func (q *Queries) GetScheduledPayment(ctx context.Context, id string) (core.ScheduledPayment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM scheduled_payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err != nil {
		return core.ScheduledPayment{}, notFound(err)
	}
	return p, nil
}

// ListScheduledPayments returns a group's payments ordered by due date.
func (q *Queries) ListScheduledPayments(ctx context.Context, groupID string) ([]core.ScheduledPayment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM scheduled_payments WHERE group_id = ? ORDER BY due_date, created_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled payments: %w", err)
	}
	defer rows.Close()

	var out []core.ScheduledPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) MarkScheduledPaymentPaid(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE scheduled_payments SET status = 'paid', paid_at = ? WHERE id = ? AND status = 'pending'`,
		formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if err := expectOne(res); err != nil {
		return core.ErrAlreadyPaid
	}
	return nil
}

func (q *Queries) DeleteScheduledPayment(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM scheduled_payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scheduled payment: %w", err)
	}
	return expectOne(res)
}
