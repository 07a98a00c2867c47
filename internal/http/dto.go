package http

import (
	"time"

	"clarify/internal/core"
	"clarify/internal/services"
)

type userResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ActiveGroupID string    `json:"active_group_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUser(u core.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, ActiveGroupID: u.ActiveGroupID, CreatedAt: u.CreatedAt}
}

type portalUserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	GroupID   string    `json:"group_id,omitempty"`
	GroupName string    `json:"group_name,omitempty"`
	Plan      core.Plan `json:"plan"`
}

func toPortalUser(o core.UserOverview) portalUserResponse {
	return portalUserResponse{
		ID:        o.User.ID,
		Name:      o.User.Name,
		Email:     o.User.Email,
		CreatedAt: o.User.CreatedAt,
		GroupID:   o.GroupID,
		GroupName: o.GroupName,
		Plan:      o.Plan,
	}
}

func toPortalUsers(users []core.UserOverview) []portalUserResponse {
	out := make([]portalUserResponse, 0, len(users))
	for _, o := range users {
		out = append(out, toPortalUser(o))
	}
	return out
}

type portalUserDetailResponse struct {
	portalUserResponse
	Movements []movementResponse `json:"movements"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      core.Plan `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroup(g core.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, Plan: g.Plan, CreatedAt: g.CreatedAt}
}

type memberResponse struct {
	UserID   string          `json:"user_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     core.MemberRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

type movementResponse struct {
	ID            string            `json:"id"`
	GroupID       string            `json:"group_id"`
	ResponsibleID string            `json:"responsible_id"`
	Type          core.MovementType `json:"type"`
	Description   string            `json:"description"`
	Amount        core.Money        `json:"amount"`
	Date          core.Date         `json:"date"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toMovement(m core.Movement) movementResponse {
	return movementResponse{
		ID:            m.ID,
		GroupID:       m.GroupID,
		ResponsibleID: m.ResponsibleID,
		Type:          m.Type,
		Description:   m.Description,
		Amount:        m.Amount,
		Date:          m.Date,
		CreatedAt:     m.CreatedAt,
	}
}

func toMovements(ms []core.Movement) []movementResponse {
	out := make([]movementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovement(m))
	}
	return out
}

type goalResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Title       string          `json:"title"`
	Target      core.Money      `json:"target_amount"`
	Current     core.Money      `json:"current_amount"`
	Remaining   core.Money      `json:"remaining"`
	Status      core.GoalStatus `json:"status"`
	DueDate     *core.Date      `json:"due_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toGoal(g core.Goal) goalResponse {
	out := goalResponse{
		ID:        g.ID,
		GroupID:   g.GroupID,
		Title:     g.Title,
		Target:    g.Target,
		Current:   g.Current,
		Remaining: g.Remaining(),
		Status:    g.Status,
		CreatedAt: g.CreatedAt,
	}
	if !g.DueDate.IsZero() {
		d := g.DueDate
		out.DueDate = &d
	}
	if !g.CompletedAt.IsZero() {
		t := g.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

type badgeResponse struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"group_id"`
	Tier        core.BadgeTier `json:"tier"`
	Description string         `json:"description"`
	IssuedAt    time.Time      `json:"issued_at"`
}

func toBadge(b core.Badge) badgeResponse {
	return badgeResponse{ID: b.ID, GroupID: b.GroupID, Tier: b.Tier, Description: b.Description, IssuedAt: b.IssuedAt}
}

type summaryResponse struct {
	Month       string     `json:"month"`
	Earnings    core.Money `json:"earnings"`
	Expenses    core.Money `json:"expenses"`
	Investments core.Money `json:"investments"`
	Net         core.Money `json:"net"`
}

func toSummary(s core.MonthSummary) summaryResponse {
	return summaryResponse{
		Month:       s.Month.String(),
		Earnings:    s.Earnings,
		Expenses:    s.Expenses,
		Investments: s.Investments,
		Net:         s.Net(),
	}
}

type dashboardResponse struct {
	Group      groupResponse      `json:"group"`
	Premium    bool               `json:"premium"`
	Members    []memberResponse   `json:"members"`
	Recent     []movementResponse `json:"recent_movements"`
	ActiveGoal *goalResponse      `json:"active_goal"`
	Summary    summaryResponse    `json:"summary"`
}

func toDashboard(d services.Dashboard) dashboardResponse {
	out := dashboardResponse{
		Group:   toGroup(d.Group),
		Premium: d.Premium,
		Members: make([]memberResponse, 0, len(d.Members)),
		Recent:  toMovements(d.Recent),
		Summary: toSummary(d.Summary),
	}
	for _, m := range d.Members {
		out.Members = append(out.Members, memberResponse{UserID: m.UserID, Name: m.Name, Email: m.Email, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	if d.ActiveGoal != nil {
		g := toGoal(*d.ActiveGoal)
		out.ActiveGoal = &g
	}
	return out
}

type paymentResponse struct {
	ID          string             `json:"id"`
	GroupID     string             `json:"group_id"`
	Description string             `json:"description"`
	Amount      core.Money         `json:"amount"`
	DueDate     core.Date          `json:"due_date"`
	Status      core.PaymentStatus `json:"status"`
	PaidAt      *time.Time         `json:"paid_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toPayment(p core.ScheduledPayment) paymentResponse {
	out := paymentResponse{
		ID:          p.ID,
		GroupID:     p.GroupID,
		Description: p.Description,
		Amount:      p.Amount,
		DueDate:     p.DueDate,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
	if !p.PaidAt.IsZero() {
		t := p.PaidAt
		out.PaidAt = &t
	}
	return out
}

type subscriptionResponse struct {
	GroupID   string    `json:"group_id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ticketResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      core.TicketStatus   `json:"status"`
	Priority    core.TicketPriority `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
	ResolvedBy  string              `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

func toTicket(t core.SupportTicket) ticketResponse {
	out := ticketResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		ResolvedBy:  t.ResolvedBy,
	}
	if !t.ResolvedAt.IsZero() {
		r := t.ResolvedAt
		out.ResolvedAt = &r
	}
	return out
}

func toTickets(ts []core.SupportTicket) []ticketResponse {
	out := make([]ticketResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTicket(t))
	}
	return out
}

type collaboratorResponse struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Email string                `json:"email"`
	Role  core.CollaboratorRole `json:"role"`
}
