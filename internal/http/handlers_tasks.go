package http

import (
	"crypto/subtle"
	"net/http"
)

// TaskSecretHeader carries the shared secret of scheduled task calls.
const TaskSecretHeader = "X-Task-Secret"

// handleCheckMonthlyAchievements runs the monthly badge batch for the most
// recently completed month. Callers must present TASK_SECRET_KEY; with no
// secret configured every call is refused.
func (s *Server) handleCheckMonthlyAchievements(w http.ResponseWriter, r *http.Request) {
	if !s.validTaskSecret(r.Header.Get(TaskSecretHeader)) {
		ErrorResponse(http.StatusForbidden, "invalid task secret").Write(w)
		return
	}

	res, err := s.svc.Evaluator.RunMonthly(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"details": res,
	})
}

func (s *Server) validTaskSecret(got string) bool {
	if s.taskSecret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.taskSecret)) == 1
}
