package core

import (
	"strings"
	"time"
)

const (
	CollaboratorAdmin   CollaboratorRole = "admin"
	CollaboratorSupport CollaboratorRole = "support"
)

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
)

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

type (
	CollaboratorRole string
	TicketStatus     string
	TicketPriority   string

	// Collaborator is a staff account of the back-office portal.
	Collaborator struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		Role         CollaboratorRole
		CreatedAt    time.Time
	}

	SupportTicket struct {
		ID          string
		UserID      string
		Title       string
		Description string
		Status      TicketStatus
		Priority    TicketPriority
		CreatedAt   time.Time
		ResolvedBy  string
		ResolvedAt  time.Time
	}

	// UserOverview is a user as listed in the collaborator portal. Plan is
	// premium only while the user's group holds a live subscription.
	UserOverview struct {
		User      User
		GroupID   string
		GroupName string
		Plan      Plan
	}

	// UserDetail adds the movements the user is responsible for, newest first.
	UserDetail struct {
		UserOverview
		Movements []Movement
	}

	// PortalStats backs the admin dashboard of the collaborator portal.
	PortalStats struct {
		TotalUsers    int64 `json:"total_users"`
		PremiumGroups int64 `json:"premium_groups"`
		NewUsersToday int64 `json:"new_users_today"`
		NewUsersWeek  int64 `json:"new_users_week"`
		NewUsersMonth int64 `json:"new_users_month"`
		OpenTickets   int64 `json:"open_tickets"`
		BadgesAwarded int64 `json:"badges_awarded"`
	}
)

func (r CollaboratorRole) Validate() error {
	switch r {
	case CollaboratorAdmin, CollaboratorSupport:
		return nil
	default:
		return ErrInvalidRole
	}
}

func (t SupportTicket) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return ErrInvalidPriority
	}
}
