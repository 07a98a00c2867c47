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

// dashboardMovements is how many recent movements the dashboard shows.
const dashboardMovements = 10

// Dashboard is the landing view of a group.
type Dashboard struct {
	Group      core.Group
	Premium    bool
	Members    []core.Member
	Recent     []core.Movement
	ActiveGoal *core.Goal
	Summary    core.MonthSummary
}

// AccountService covers registration, login and group access.
type AccountService struct {
	store  *storage.SQLiteRepository
	tokens *auth.JWTManager
	ledger *LedgerAggregator
	plans  *PlanService
	logger *log.Logger
	now    func() time.Time
}

func NewAccountService(store *storage.SQLiteRepository, tokens *auth.JWTManager, ledger *LedgerAggregator, plans *PlanService, logger *log.Logger) *AccountService {
	return &AccountService{
		store:  store,
		tokens: tokens,
		ledger: ledger,
		plans:  plans,
		logger: componentLogger(logger, log.ComponentApp),
		now:    time.Now,
	}
}

// Register creates a user together with a personal group the user owns.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (core.User, core.Group, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return core.User{}, core.Group{}, fmt.Errorf("%w: name and email are required", core.ErrEmptyDescription)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return core.User{}, core.Group{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, core.Group{}, err
	}

	var (
		user  core.User
		group core.Group
	)
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if user, err = q.CreateUser(ctx, core.User{Name: name, Email: email, PasswordHash: hash}); err != nil {
			return err
		}
		if group, err = q.CreateGroup(ctx, core.Group{Name: name, Plan: core.PlanFree}); err != nil {
			return err
		}
		if err := q.AddMember(ctx, group.ID, user.ID, core.RoleOwner); err != nil {
			return err
		}
		if err := q.SetActiveGroup(ctx, user.ID, group.ID); err != nil {
			return err
		}
		user.ActiveGroupID = group.ID
		return nil
	})
	if err != nil {
		return core.User{}, core.Group{}, err
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldGroupID, group.ID)
	return user, group, nil
}

// Login checks credentials and issues a user-scoped access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, core.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", core.User{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return "", core.User{}, err
	}
	token, err := s.tokens.Generate(auth.Principal{ID: user.ID, Email: user.Email, Scope: auth.ScopeUser})
	if err != nil {
		return "", core.User{}, err
	}
	return token, user, nil
}

func (s *AccountService) Me(ctx context.Context, userID string) (core.User, error) {
	return s.store.GetUser(ctx, userID)
}

// Authorize returns core.ErrNotFound for unknown groups and core.ErrNotMember
// when userID does not belong to the group.
func (s *AccountService) Authorize(ctx context.Context, groupID, userID string) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	ok, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return core.ErrNotMember
	}
	return nil
}

// Dashboard gathers the group overview for the current month.
func (s *AccountService) Dashboard(ctx context.Context, groupID string) (Dashboard, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Group: group}

	if d.Premium, err = s.plans.IsPremium(ctx, groupID); err != nil {
		return Dashboard{}, err
	}
	if d.Members, err = s.store.ListMembers(ctx, groupID); err != nil {
		return Dashboard{}, err
	}
	if d.Recent, err = s.store.ListMovements(ctx, groupID, core.Lifetime(), dashboardMovements); err != nil {
		return Dashboard{}, err
	}
	goal, err := s.store.GetActiveGoal(ctx, groupID)
	switch {
	case err == nil:
		d.ActiveGoal = &goal
	case !errors.Is(err, core.ErrNotFound):
		return Dashboard{}, err
	}
	if d.Summary, err = s.ledger.MonthSummary(ctx, groupID, core.MonthOf(s.now())); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
