package http

import (
	"net/http"

	"clarify/internal/auth"
	"clarify/internal/core"
	"clarify/internal/log"
)

type ticketRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    core.TicketPriority `json:"priority"`
}

type portalUserUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type portalPasswordRequest struct {
	Password string `json:"password"`
}

type grantPremiumRequest struct {
	Months int `json:"months"`
}

func (s *Server) handleOpenTicket(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req ticketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	t, err := s.svc.Support.OpenTicket(r.Context(), p.ID, sanitizeInput(req.Title), sanitizeInput(req.Description), req.Priority)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicket(t))
}

func (s *Server) handleMyTickets(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	tickets, err := s.svc.Support.UserTickets(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTickets(tickets))
}

func (s *Server) handlePortalLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	token, c, err := s.svc.Support.Login(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"collaborator": collaboratorResponse{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role},
	})
}

func (s *Server) handlePortalTickets(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	status := core.TicketStatus(r.URL.Query().Get("status"))
	switch status {
	case "", core.TicketOpen, core.TicketResolved:
	default:
		BadRequestError("invalid ticket status").Write(w)
		return
	}

	tickets, err := s.svc.Support.Tickets(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTickets(tickets))
}

func (s *Server) handleResolveTicket(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	t, err := s.svc.Support.Resolve(r.Context(), r.PathValue("ticketID"), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicket(t))
}

func (s *Server) handlePortalStats(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	st, err := s.svc.Support.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGrantPremium(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req grantPremiumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	sub, err := s.svc.Plans.GrantPremium(r.Context(), r.PathValue("groupID"), req.Months)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Premium granted from portal",
		log.FieldGroupID, sub.GroupID,
		"collaborator_id", p.ID,
		"months", req.Months)
	writeJSON(w, http.StatusOK, subscriptionResponse{GroupID: sub.GroupID, Status: sub.Status, ExpiresAt: sub.ExpiresAt})
}

func (s *Server) handlePortalUsers(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	users, err := s.svc.Support.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPortalUsers(users))
}

func (s *Server) handlePortalUser(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	d, err := s.svc.Support.UserDetail(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portalUserDetailResponse{
		portalUserResponse: toPortalUser(d.UserOverview),
		Movements:          toMovements(d.Movements),
	})
}

func (s *Server) handlePortalUpdateUser(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req portalUserUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	u, err := s.svc.Support.UpdateUser(r.Context(), p.ID, r.PathValue("userID"), sanitizeInput(req.Name), sanitizeInput(req.Email))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handlePortalSetPassword(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req portalPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := s.svc.Support.SetUserPassword(r.Context(), p.ID, r.PathValue("userID"), req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
