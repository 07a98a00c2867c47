package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Earning    MovementType = "earning"
	Expense    MovementType = "expense"
	Investment MovementType = "investment"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

const maxDescriptionLength = 200

type (
	MovementType  string
	GoalStatus    string
	Plan          string
	MemberRole    string
	PaymentStatus string

	User struct {
		ID            string
		Name          string
		Email         string
		PasswordHash  string
		ActiveGroupID string
		CreatedAt     time.Time
	}

	Group struct {
		ID        string
		Name      string
		Plan      Plan
		CreatedAt time.Time
	}

	Member struct {
		UserID   string
		GroupID  string
		Name     string
		Email    string
		Role     MemberRole
		JoinedAt time.Time
	}

	Movement struct {
		ID            string
		GroupID       string
		ResponsibleID string
		Type          MovementType
		Description   string
		Amount        Money
		Date          Date
		CreatedAt     time.Time
	}

	Goal struct {
		ID          string
		GroupID     string
		Title       string
		Target      Money
		Current     Money
		Status      GoalStatus
		DueDate     Date // zero when the goal has no deadline
		CreatedAt   time.Time
		CompletedAt time.Time
	}

	Subscription struct {
		GroupID   string
		Status    string
		ExpiresAt time.Time
	}

	ScheduledPayment struct {
		ID          string
		GroupID     string
		Description string
		Amount      Money
		DueDate     Date
		Status      PaymentStatus
		PaidAt      time.Time
		CreatedAt   time.Time
	}

	// ParsedMovement is a movement suggested from free text, not yet persisted.
	ParsedMovement struct {
		Description string       `json:"description"`
		Amount      Money        `json:"amount"`
		Type        MovementType `json:"type"`
		Date        Date         `json:"date"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid movement type")
	ErrInvalidWindow      = errors.New("invalid window")
	ErrInvalidDate        = errors.New("invalid date")
	ErrMissingResponsible = errors.New("responsible member is required")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionLength  = errors.New("description too long (max 200 characters)")
	ErrEmptyTitle         = errors.New("empty title")
	ErrGoalNotActive      = errors.New("goal is not active")
	ErrInsufficientFunds  = errors.New("withdrawal exceeds the goal balance")
	ErrNotMember          = errors.New("user is not a member of the group")
	ErrPremiumRequired    = errors.New("premium required")
	ErrAIQuotaExceeded    = errors.New("free plan AI usage limit reached")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrAlreadyPaid        = errors.New("payment already marked as paid")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrAlreadyResolved    = errors.New("ticket already resolved")
)

func (t MovementType) Validate() error {
	switch t {
	case Earning, Expense, Investment:
		return nil
	default:
		return ErrInvalidType
	}
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	return nil
}

// Validate checks a member-entered movement.
func (m Movement) Validate() error {
	if err := m.Type.Validate(); err != nil {
		return err
	}
	if err := validateDescription(m.Description); err != nil {
		return err
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if err := m.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.ResponsibleID) == "" {
		return ErrMissingResponsible
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	return g.Target.Validate()
}

// Remaining is what still has to be saved to reach the target.
func (g Goal) Remaining() Money {
	r := g.Target.Sub(g.Current)
	if r.IsPositive() {
		return r
	}
	return Zero
}

// Deposit applies a deposit to an active goal and reports whether it
// completed the goal. The caller persists the returned goal.
func (g Goal) Deposit(amount Money, now time.Time) (Goal, bool, error) {
	if g.Status != GoalActive {
		return g, false, ErrGoalNotActive
	}
	if err := amount.Validate(); err != nil {
		return g, false, err
	}
	g.Current = g.Current.Add(amount)
	if g.Current.GreaterThanOrEqual(g.Target) {
		g.Status = GoalCompleted
		g.CompletedAt = now.UTC()
		return g, true, nil
	}
	return g, false, nil
}

// Withdraw removes funds from an active goal without going below zero.
func (g Goal) Withdraw(amount Money) (Goal, error) {
	if g.Status != GoalActive {
		return g, ErrGoalNotActive
	}
	if err := amount.Validate(); err != nil {
		return g, err
	}
	if amount.Cmp(g.Current) > 0 {
		return g, ErrInsufficientFunds
	}
	g.Current = g.Current.Sub(amount)
	return g, nil
}

// IsPremium reports whether the subscription is still running at now.
func (s Subscription) IsPremium(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// ExtendPremium returns the new expiry after granting months of premium.
// A live subscription is extended from its current expiry, otherwise from now.
func ExtendPremium(current Subscription, now time.Time, months int) time.Time {
	base := now.UTC()
	if current.IsPremium(now) {
		base = current.ExpiresAt.UTC()
	}
	return AddMonths(base, months)
}

func (p ScheduledPayment) Validate() error {
	if err := validateDescription(p.Description); err != nil {
		return err
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.DueDate.Validate()
}
