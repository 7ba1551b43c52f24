package handler

import (
	"errors"
	"net/http"

	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/service"
)

// RoleHeader carries the caller's role hint; absent or unknown hints fall
// back to student, the least-privileged role.
const RoleHeader = "X-Quiz-Role"

// TokenHandler handles the capability token endpoint
type TokenHandler struct {
	tokenSvc *service.TokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenSvc *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc}
}

// Issue handles GET /v1/realtime/token. Optional query params: clientId to
// reuse an existing client identity, sessionId to scope the capability to
// one session's channels.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	role := model.ParseRole(r.Header.Get(RoleHeader))
	clientID := r.URL.Query().Get("clientId")
	sessionID := r.URL.Query().Get("sessionId")

	token, err := h.tokenSvc.IssueToken(role, clientID, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, token)
}
