package http

import (
	"net/http"

	"clarify/internal/auth"
	"clarify/internal/core"
)

type paymentRequest struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	DueDate     core.Date  `json:"due_date"`
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePremiumStatus(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	premium, err := s.svc.Plans.IsPremium(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"premium": premium})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	payments, err := s.svc.Payments.List(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPayment(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	p, err := s.svc.Payments.Create(r.Context(), core.ScheduledPayment{
		GroupID:     groupID,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayment(p))
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	p, err := s.svc.Payments.MarkPaid(r.Context(), groupID, r.PathValue("paymentID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	if err := s.svc.Payments.Delete(r.Context(), groupID, r.PathValue("paymentID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleAIParse returns suggested movements. Nothing is stored.
func (s *Server) handleAIParse(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal) {
	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	suggestions, err := s.svc.AI.Parse(r.Context(), groupID, p.ID, sanitizeInput(req.Text))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []core.ParsedMovement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": suggestions})
}
