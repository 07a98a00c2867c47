package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clarify/internal/auth"
	"clarify/internal/core"
)

func newTestAccounts(t *testing.T) (*AccountService, *SupportService, *auth.JWTManager) {
	t.Helper()
	store := newTestStore(t)
	tokens := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	ledger := newTestLedger(store)
	plans := NewPlanService(store, nil)
	return NewAccountService(store, tokens, ledger, plans, nil), NewSupportService(store, tokens, nil), tokens
}

func TestRegisterLoginAndDashboard(t *testing.T) {
	accounts, _, tokens := newTestAccounts(t)
	ctx := context.Background()

	user, group, err := accounts.Register(ctx, "Ana", "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ActiveGroupID != group.ID || group.Plan != core.PlanFree {
		t.Fatalf("unexpected registration result %+v %+v", user, group)
	}
	if _, _, err := accounts.Register(ctx, "Ana", "ANA@example.com", "s3cret-pass"); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, _, err := accounts.Register(ctx, "Bo", "bo@example.com", "short"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, _, err := accounts.Login(ctx, "ana@example.com", "wrong-pass"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	token, _, err := accounts.Login(ctx, "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := tokens.Validate(token)
	if err != nil || p.ID != user.ID || p.Scope != auth.ScopeUser {
		t.Fatalf("token principal %+v %v", p, err)
	}

	if err := accounts.Authorize(ctx, group.ID, user.ID); err != nil {
		t.Fatalf("owner should be authorized: %v", err)
	}
	if err := accounts.Authorize(ctx, group.ID, "stranger"); !errors.Is(err, core.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := accounts.Authorize(ctx, "missing", user.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	d, err := accounts.Dashboard(ctx, group.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Members) != 1 || d.Premium || d.ActiveGoal != nil || !d.Summary.Net().IsZero() {
		t.Fatalf("unexpected dashboard %+v", d)
	}
}

func TestSupportTicketsAndStats(t *testing.T) {
	accounts, support, tokens := newTestAccounts(t)
	ctx := context.Background()

	user, _, err := accounts.Register(ctx, "Ana", "ana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	admin, err := support.CreateCollaborator(ctx, "Root", "root@example.com", "admin-pass", core.CollaboratorAdmin)
	if err != nil {
		t.Fatalf("create collaborator: %v", err)
	}
	token, _, err := support.Login(ctx, "root@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("collaborator login: %v", err)
	}
	p, _ := tokens.Validate(token)
	if p.Scope != auth.ScopeCollaborator || p.Role != string(core.CollaboratorAdmin) {
		t.Fatalf("unexpected principal %+v", p)
	}

	ticket, err := support.OpenTicket(ctx, user.ID, "Cannot export", "The export button does nothing", "")
	if err != nil || ticket.Priority != core.PriorityMedium {
		t.Fatalf("open ticket: %+v %v", ticket, err)
	}
	open, _ := support.Tickets(ctx, core.TicketOpen)
	if len(open) != 1 {
		t.Fatalf("expected one open ticket, got %d", len(open))
	}
	resolved, err := support.Resolve(ctx, ticket.ID, admin.ID)
	if err != nil || resolved.Status != core.TicketResolved || resolved.ResolvedBy != admin.ID {
		t.Fatalf("resolve: %+v %v", resolved, err)
	}
	if _, err := support.Resolve(ctx, ticket.ID, admin.ID); !errors.Is(err, core.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	stats, err := support.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.NewUsersToday != 1 || stats.OpenTickets != 0 || stats.PremiumGroups != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
