package http

import (
	"errors"
	"net/http"

	"clarify/internal/auth"
	"clarify/internal/core"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 500
)

type movementRequest struct {
	ResponsibleID string            `json:"responsible_id"`
	Type          core.MovementType `json:"type"`
	Description   string            `json:"description"`
	Amount        core.Money        `json:"amount"`
	Date          core.Date         `json:"date"`
}

// movement builds the domain value. The caller is responsible unless the
// request names another member; a missing date means today.
func (req movementRequest) movement(groupID string, p auth.Principal, today core.Date) core.Movement {
	m := core.Movement{
		GroupID:       groupID,
		ResponsibleID: sanitizeInput(req.ResponsibleID),
		Type:          req.Type,
		Description:   sanitizeInput(req.Description),
		Amount:        req.Amount,
		Date:          req.Date,
	}
	if m.ResponsibleID == "" {
		m.ResponsibleID = p.ID
	}
	if m.Date.IsZero() {
		m.Date = today
	}
	return m
}

// writeMovementError reports a non-member responsible as a bad request; the
// caller's own membership was already checked by withGroup.
func writeMovementError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotMember) {
		BadRequestError("responsible is not a member of the group").Write(w)
		return
	}
	writeServiceError(w, r, err)
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	month, err := ParseMonthParam(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	limit, err := ParseLimitParam(r, defaultMovementLimit, maxMovementLimit)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	items, err := s.svc.Movements.ListMonth(r.Context(), groupID, month, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":     month.String(),
		"movements": toMovements(items),
	})
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal) {
	var req movementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := s.svc.Movements.Create(r.Context(), req.movement(groupID, p, core.DateOf(s.now())))
	if err != nil {
		writeMovementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovement(created))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal) {
	var req movementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	m := req.movement(groupID, p, core.DateOf(s.now()))
	m.ID = r.PathValue("movementID")
	updated, err := s.svc.Movements.Update(r.Context(), m)
	if err != nil {
		writeMovementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovement(updated))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	if err := s.svc.Movements.Delete(r.Context(), groupID, r.PathValue("movementID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	month, err := ParseMonthParam(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, err := s.svc.Ledger.MonthSummary(r.Context(), groupID, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(summary))
}
