// internal/adapters/in/http/handlers/session_handler.go
package handlers

import (
	"net/http"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
)

// SessionHandler serves POST /auth/session: called by the front end right
// after sign-in with the "next" value from the login URL.
type SessionHandler struct{}

func NewSessionHandler() http.Handler { return SessionHandler{} }

type sessionRequest struct {
	Next string `json:"next"`
}

type sessionResponse struct {
	Redirect string         `json:"redirect"`
	Role     string         `json:"role"`
	UID      string         `json:"uid"`
	Email    string         `json:"email,omitempty"`
	Member   *memdom.Member `json:"member,omitempty"`
}

func (SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req sessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	s := httpmw.CurrentSession(r)
	switch s.State {
	case guard.Resolving:
		w.Header().Set("Retry-After", httpmw.RetryAfterSeconds)
		writeError(w, http.StatusServiceUnavailable, "session_resolving")
		return
	case guard.Anonymous:
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    "unauthorized",
			"redirect": guard.LoginRedirect(req.Next),
		})
		return
	}

	resp := sessionResponse{
		Redirect: guard.ReturnPath(req.Next, s.Role),
		Role:     s.Role.String(),
		UID:      s.UserID,
		Email:    s.Email,
	}
	if m, ok := httpmw.CurrentMember(r); ok {
		resp.Member = &m
	}
	writeJSON(w, http.StatusOK, resp)
}
