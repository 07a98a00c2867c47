package http

import (
	"net/http"
	"strings"

	"clarify/internal/auth"
	"clarify/internal/core"
)

type principalHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// groupHandler receives a group the caller is known to belong to.
type groupHandler func(w http.ResponseWriter, r *http.Request, groupID string, p auth.Principal)

// authenticate validates the bearer token and enforces its scope.
func (s *Server) authenticate(r *http.Request, scope string) (auth.Principal, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return auth.Principal{}, auth.ErrMissingToken
	}
	p, err := s.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return auth.Principal{}, err
	}
	if p.Scope != scope {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return p, nil
}

func (s *Server) withScope(scope string, next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r, scope)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithPrincipal(r.Context(), p)), p)
	}
}

func (s *Server) withUser(next principalHandler) http.HandlerFunc {
	return s.withScope(auth.ScopeUser, next)
}

func (s *Server) withCollaborator(next principalHandler) http.HandlerFunc {
	return s.withScope(auth.ScopeCollaborator, next)
}

func (s *Server) withAdmin(next principalHandler) http.HandlerFunc {
	return s.withCollaborator(func(w http.ResponseWriter, r *http.Request, p auth.Principal) {
		if p.Role != string(core.CollaboratorAdmin) {
			ErrorResponse(http.StatusForbidden, "admin role required").Write(w)
			return
		}
		next(w, r, p)
	})
}

// withGroup authenticates a user and checks membership of {groupID}:
// 404 for unknown groups, 403 for non-members.
func (s *Server) withGroup(next groupHandler) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, p auth.Principal) {
		groupID := r.PathValue("groupID")
		if err := s.svc.Accounts.Authorize(r.Context(), groupID, p.ID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		next(w, r, groupID, p)
	})
}
