// internal/adapters/in/http/middleware/guard.go
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
)

// RetryAfterSeconds is sent with 503 while a session is still resolving.
const RetryAfterSeconds = "1"

// requireGuard wraps next with g.
func requireGuard(g *guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Authorize(w, r, g) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Authorize runs g for the request. It returns true when the handler may
// proceed; otherwise the response has already been written.
//
//	RenderLoading → 503 + Retry-After
//	Redirect      → 302 for browser navigation, JSON 401/403 with "redirect" otherwise
//
// A nil guard denies with 500.
func Authorize(w http.ResponseWriter, r *http.Request, g *guard.Guard) bool {
	if g == nil {
		writeGuardJSON(w, http.StatusInternalServerError, map[string]string{"error": "guard_not_configured"})
		return false
	}
	d := g.Check(r.Context(), CurrentSession(r), requestPath(r))

	switch d.Kind {
	case guard.RenderChildren:
		return true

	case guard.RenderLoading:
		w.Header().Set("Retry-After", RetryAfterSeconds)
		writeGuardJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session_resolving"})
		return false

	default:
		if wantsHTML(r) {
			http.Redirect(w, r, d.Target, http.StatusFound)
			return false
		}
		status, msg := http.StatusUnauthorized, "unauthorized"
		if d.Denied {
			status, msg = http.StatusForbidden, "forbidden"
		}
		writeGuardJSON(w, status, map[string]string{"error": msg, "redirect": d.Target})
		return false
	}
}

func requestPath(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// wantsHTML is true for top-level browser navigations.
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func writeGuardJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
