// Package guard decides whether a session may enter a protected route.
package guard

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
)

// SessionState is how far identity resolution got for the current request.
type SessionState int

const (
	Resolving SessionState = iota
	Anonymous
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is what a guard knows about the caller.
type Session struct {
	State  SessionState
	Role   role.Role
	UserID string
	Email  string
}

// Kind is the outcome of a guard decision.
type Kind int

const (
	RenderChildren Kind = iota
	Redirect
	RenderLoading
)

func (k Kind) String() string {
	switch k {
	case RenderChildren:
		return "render"
	case Redirect:
		return "redirect"
	case RenderLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide. Target is set for Redirect. Denied marks a
// redirect caused by a missing capability (as opposed to a missing login).
type Decision struct {
	Kind   Kind
	Target string
	Denied bool
}

// LoginPath is where anonymous sessions are sent.
const LoginPath = "/login"

// Decide is the guard decision for session requesting path.
func Decide(s Session, path string, can role.Capability) Decision {
	switch s.State {
	case Resolving:
		return Decision{Kind: RenderLoading}
	case Authenticated:
		if can != nil && can(s.Role) {
			return Decision{Kind: RenderChildren}
		}
		return Decision{Kind: Redirect, Target: s.Role.Fallback(), Denied: true}
	default:
		return Decision{Kind: Redirect, Target: LoginRedirect(path)}
	}
}

// LoginRedirect is the login URL that returns to path after login.
func LoginRedirect(path string) string {
	path = strings.TrimSpace(path)
	if !isLocalPath(path) || isLoginPath(path) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(path)
}

// ReturnPath is where a freshly logged-in session goes: next when it is a
// local path, the role's home otherwise.
func ReturnPath(next string, r role.Role) string {
	next = strings.TrimSpace(next)
	if isLocalPath(next) && !isLoginPath(next) {
		return next
	}
	return r.Home()
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func isLoginPath(p string) bool {
	return p == LoginPath || strings.HasPrefix(p, LoginPath+"?") || strings.HasPrefix(p, LoginPath+"/")
}

// Severity of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier is the side channel told about denied attempts.
type Notifier interface {
	Notify(ctx context.Context, title, message string, severity Severity) error
}

// Denied-access notification text.
const (
	DeniedTitle   = "Access denied"
	DeniedMessage = "You do not have permission to open this page."
)

// Guard is a route guard parameterised by the capability it requires.
type Guard struct {
	Name       string
	Capability role.Capability
	Notifier   Notifier
	Logger     *zap.Logger
}

// AdminGuard admits admin_pusat and admin_cabang.
func AdminGuard(n Notifier, l *zap.Logger) *Guard {
	return &Guard{Name: "admin", Capability: role.AnyAdmin, Notifier: n, Logger: l}
}

// CentralAdminGuard admits admin_pusat only.
func CentralAdminGuard(n Notifier, l *zap.Logger) *Guard {
	return &Guard{Name: "central_admin", Capability: role.CentralAdminOnly, Notifier: n, Logger: l}
}

// MemberGuard admits any signed-in member with a valid role.
func MemberGuard(n Notifier, l *zap.Logger) *Guard {
	return &Guard{Name: "member", Capability: role.AnyMember, Notifier: n, Logger: l}
}

// Check decides for one attempt and, when the attempt is denied, notifies
// exactly once. A failing notifier is logged and does not change the decision.
func (g *Guard) Check(ctx context.Context, s Session, path string) Decision {
	d := Decide(s, path, g.Capability)
	metrics.GuardDecisions.WithLabelValues(g.Name, decisionLabel(d)).Inc()

	if !d.Denied {
		return d
	}
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("access denied",
		zap.String("guard", g.Name),
		zap.String("path", path),
		zap.String("role", s.Role.String()),
		zap.String("uid", s.UserID),
	)
	if g.Notifier != nil {
		if err := g.Notifier.Notify(ctx, DeniedTitle, DeniedMessage, SeverityError); err != nil {
			log.Warn("notify failed", zap.String("guard", g.Name), zap.Error(err))
		}
	}
	return d
}

func decisionLabel(d Decision) string {
	if d.Denied {
		return "denied"
	}
	return d.Kind.String()
}
