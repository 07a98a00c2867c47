package http

import (
	"net/http"

	"clarify/internal/auth"
	"clarify/internal/core"
)

type goalRequest struct {
	Title   string     `json:"title"`
	Target  core.Money `json:"target_amount"`
	DueDate core.Date  `json:"due_date"`
}

type amountRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	goals, err := s.svc.Goals.List(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoal(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	g, err := s.svc.Goals.Create(r.Context(), groupID, sanitizeInput(req.Title), req.Target, req.DueDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoal(g))
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := s.svc.Goals.Deposit(r.Context(), groupID, r.PathValue("goalID"), p.ID, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body := map[string]any{
		"goal":      toGoal(res.Goal),
		"completed": res.Completed,
		"badge":     nil,
	}
	if res.Badge != nil {
		body["badge"] = toBadge(*res.Badge)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	g, err := s.svc.Goals.Withdraw(r.Context(), groupID, r.PathValue("goalID"), p.ID, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(g))
}

func (s *Server) handleCancelGoal(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	g, err := s.svc.Goals.Cancel(r.Context(), groupID, r.PathValue("goalID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(g))
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	badges, err := s.svc.Evaluator.Badges(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]badgeResponse, 0, len(badges))
	for _, b := range badges {
		out = append(out, toBadge(b))
	}
	writeJSON(w, http.StatusOK, out)
}
