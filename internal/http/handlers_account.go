package http

import (
	"net/http"

	"clarify/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, group, err := s.svc.Accounts.Register(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  toUser(user),
		"group": toGroup(group),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	token, user, err := s.svc.Accounts.Login(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         toUser(user),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	user, err := s.svc.Accounts.Me(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, groupID string, _ auth.Principal) {
	d, err := s.svc.Accounts.Dashboard(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d))
}
