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

func (q *Queries) CreateCollaborator(ctx context.Context, c core.Collaborator) (core.Collaborator, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO collaborators (id, name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.PasswordHash, string(c.Role), formatTimestamp(c.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Collaborator{}, core.ErrEmailTaken
		}
		return core.Collaborator{}, fmt.Errorf("insert collaborator: %w", err)
	}
	return c, nil
}

func (q *Queries) getCollaborator(ctx context.Context, where string, arg interface{}) (core.Collaborator, error) {
	var (
		c         core.Collaborator
		role      string
		createdAt string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM collaborators WHERE `+where, arg).
		Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &role, &createdAt)
	if err != nil {
		return core.Collaborator{}, notFound(err)
	}
	c.Role = core.CollaboratorRole(role)
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Collaborator{}, err
	}
	return c, nil
}

func (q *Queries) GetCollaborator(ctx context.Context, id string) (core.Collaborator, error) {
	return q.getCollaborator(ctx, `id = ?`, id)
}

func (q *Queries) GetCollaboratorByEmail(ctx context.Context, email string) (core.Collaborator, error) {
	return q.getCollaborator(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

const ticketColumns = `id, user_id, title, description, status, priority, created_at, resolved_by, resolved_at`

func scanTicket(row rowScanner) (core.SupportTicket, error) {
	var (
		t                core.SupportTicket
		status, priority string
		createdAt        string
		resolvedBy       sql.NullString
		resolvedAt       sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &priority, &createdAt, &resolvedBy, &resolvedAt); err != nil {
		return core.SupportTicket{}, err
	}
	t.Status = core.TicketStatus(status)
	t.Priority = core.TicketPriority(priority)
	t.ResolvedBy = resolvedBy.String
	var err error
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.SupportTicket{}, err
	}
	if t.ResolvedAt, err = parseNullTimestamp(resolvedAt); err != nil {
		return core.SupportTicket{}, err
	}
	return t, nil
}

func (q *Queries) CreateTicket(ctx context.Context, t core.SupportTicket) (core.SupportTicket, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.TicketOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO support_tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority),
		formatTimestamp(t.CreatedAt), nullString(t.ResolvedBy), nullTimestamp(t.ResolvedAt))
	if err != nil {
		return core.SupportTicket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

// ListTickets returns tickets newest first. An empty status lists all of them.
func (q *Queries) ListTickets(ctx context.Context, status core.TicketStatus) ([]core.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []core.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) ListTicketsByUser(ctx context.Context, userID string) ([]core.SupportTicket, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM support_tickets WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	defer rows.Close()

	var out []core.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) ResolveTicket(ctx context.Context, id, collaboratorID string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE support_tickets SET status = 'resolved', resolved_by = ?, resolved_at = ?
		 WHERE id = ? AND status = 'open'`,
		collaboratorID, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("resolve ticket: %w", err)
	}
	if err := expectOne(res); err != nil {
		if _, getErr := q.GetTicket(ctx, id); getErr != nil {
			return getErr
		}
		return core.ErrAlreadyResolved
	}
	return nil
}

func (q *Queries) GetTicket(ctx context.Context, id string) (core.SupportTicket, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		return core.SupportTicket{}, notFound(err)
	}
	return t, nil
}

func (q *Queries) CountOpenTickets(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM support_tickets WHERE status = 'open'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open tickets: %w", err)
	}
	return n, nil
}
