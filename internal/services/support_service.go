package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clarify/internal/auth"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/storage"
)

// SupportService backs user support tickets and the collaborator portal.
type SupportService struct {
	store  *storage.SQLiteRepository
	tokens *auth.JWTManager
	logger *log.Logger
	now    func() time.Time
}

func NewSupportService(store *storage.SQLiteRepository, tokens *auth.JWTManager, logger *log.Logger) *SupportService {
	return &SupportService{
		store:  store,
		tokens: tokens,
		logger: componentLogger(logger, log.ComponentApp),
		now:    time.Now,
	}
}

func (s *SupportService) OpenTicket(ctx context.Context, userID, title, description string, priority core.TicketPriority) (core.SupportTicket, error) {
	if priority == "" {
		priority = core.PriorityMedium
	}
	t := core.SupportTicket{
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      core.TicketOpen,
		Priority:    priority,
	}
	if err := t.Validate(); err != nil {
		return core.SupportTicket{}, err
	}
	return s.store.CreateTicket(ctx, t)
}

func (s *SupportService) UserTickets(ctx context.Context, userID string) ([]core.SupportTicket, error) {
	return s.store.ListTicketsByUser(ctx, userID)
}

// Tickets lists tickets for collaborators; an empty status lists all.
func (s *SupportService) Tickets(ctx context.Context, status core.TicketStatus) ([]core.SupportTicket, error) {
	return s.store.ListTickets(ctx, status)
}

func (s *SupportService) Resolve(ctx context.Context, ticketID, collaboratorID string) (core.SupportTicket, error) {
	if err := s.store.ResolveTicket(ctx, ticketID, collaboratorID, s.now().UTC()); err != nil {
		return core.SupportTicket{}, err
	}
	s.logger.InfoContext(ctx, "Support ticket resolved", "ticket_id", ticketID, "collaborator_id", collaboratorID)
	return s.store.GetTicket(ctx, ticketID)
}

// CreateCollaborator registers a portal account.
func (s *SupportService) CreateCollaborator(ctx context.Context, name, email, password string, role core.CollaboratorRole) (core.Collaborator, error) {
	if err := role.Validate(); err != nil {
		return core.Collaborator{}, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return core.Collaborator{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.Collaborator{}, err
	}
	return s.store.CreateCollaborator(ctx, core.Collaborator{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
}

// Login issues a collaborator-scoped token carrying the collaborator's role.
func (s *SupportService) Login(ctx context.Context, email, password string) (string, core.Collaborator, error) {
	c, err := s.store.GetCollaboratorByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.Collaborator{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", core.Collaborator{}, err
	}
	if err := auth.CheckPassword(c.PasswordHash, password); err != nil {
		return "", core.Collaborator{}, err
	}
	token, err := s.tokens.Generate(auth.Principal{
		ID:    c.ID,
		Email: c.Email,
		Scope: auth.ScopeCollaborator,
		Role:  string(c.Role),
	})
	if err != nil {
		return "", core.Collaborator{}, err
	}
	return token, c, nil
}

// Stats computes the admin dashboard counters. Day, week and month are the
// trailing 1, 7 and 30 days.
func (s *SupportService) Stats(ctx context.Context) (core.PortalStats, error) {
	now := s.now().UTC()
	var (
		st  core.PortalStats
		err error
	)
	if st.TotalUsers, err = s.store.CountUsersSince(ctx, time.Time{}); err != nil {
		return st, err
	}
	if st.NewUsersToday, err = s.store.CountUsersSince(ctx, now.AddDate(0, 0, -1)); err != nil {
		return st, err
	}
	if st.NewUsersWeek, err = s.store.CountUsersSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return st, err
	}
	if st.NewUsersMonth, err = s.store.CountUsersSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return st, err
	}
	if st.PremiumGroups, err = s.store.CountPremiumGroups(ctx, now); err != nil {
		return st, err
	}
	if st.OpenTickets, err = s.store.CountOpenTickets(ctx); err != nil {
		return st, err
	}
	if st.BadgesAwarded, err = s.store.CountBadges(ctx); err != nil {
		return st, fmt.Errorf("count badges: %w", err)
	}
	return st, nil
}

// userDetailMovements caps the movement history returned by UserDetail.
const userDetailMovements = 50

// ListUsers lists every user with the plan of their group, newest first.
func (s *SupportService) ListUsers(ctx context.Context) ([]core.UserOverview, error) {
	return s.store.ListUserOverviews(ctx, s.now().UTC())
}

func (s *SupportService) UserDetail(ctx context.Context, userID string) (core.UserDetail, error) {
	o, err := s.store.GetUserOverview(ctx, userID, s.now().UTC())
	if err != nil {
		return core.UserDetail{}, err
	}
	movements, err := s.store.ListMovementsByResponsible(ctx, userID, userDetailMovements)
	if err != nil {
		return core.UserDetail{}, err
	}
	return core.UserDetail{UserOverview: o, Movements: movements}, nil
}

// UpdateUser changes a user's name and email. Blank fields keep their value.
func (s *SupportService) UpdateUser(ctx context.Context, collaboratorID, userID, name, email string) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		if !strings.Contains(email, "@") {
			return core.User{}, core.ErrInvalidEmail
		}
		u.Email = strings.ToLower(email)
	}
	if err := s.store.UpdateUserProfile(ctx, u.ID, u.Name, u.Email); err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User updated from portal", log.FieldUserID, u.ID, "collaborator_id", collaboratorID)
	return u, nil
}

// SetUserPassword replaces a user's password without knowing the old one.
func (s *SupportService) SetUserPassword(ctx context.Context, collaboratorID, userID, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.SetUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User password set from portal", log.FieldUserID, userID, "collaborator_id", collaboratorID)
	return nil
}
