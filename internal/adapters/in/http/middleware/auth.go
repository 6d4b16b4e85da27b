// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

// TokenVerifier is the part of *auth.Client the middleware uses.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// context keys use a private type to avoid collisions
type ctxKey struct{ name string }

var (
	ctxKeySession = ctxKey{name: "session"}
	ctxKeyMember  = ctxKey{name: "currentMember"}
)

// AuthMiddleware resolves the caller's session from
//
//   - Authorization: Bearer <ID_TOKEN>
//
// It never rejects a request itself: guards decide what a session may do.
//
//   - no or invalid token                 → Anonymous
//   - valid token, member lookup failed   → Resolving (identity backend unavailable)
//   - valid token, no member record       → Authenticated with role.Unknown
//   - valid token, member found           → Authenticated with the member's role
type AuthMiddleware struct {
	FirebaseAuth TokenVerifier
	MemberRepo   memdom.Repository
	Logger       *zap.Logger
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, member := m.resolve(r)
		ctx := context.WithValue(r.Context(), ctxKeySession, s)
		if member != nil {
			ctx = context.WithValue(ctx, ctxKeyMember, *member)
			ctx = usecase.WithActor(ctx, usecase.Actor{
				MemberID: member.ID,
				Role:     member.RoleValue(),
				Branch:   member.Branch,
			})
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolve(r *http.Request) (guard.Session, *memdom.Member) {
	log := m.logger()
	anon := guard.Session{State: guard.Anonymous}

	idToken, ok := bearerToken(r)
	if !ok {
		return anon, nil
	}
	if m.FirebaseAuth == nil || m.MemberRepo == nil {
		log.Warn("auth middleware not initialized")
		return guard.Session{State: guard.Resolving}, nil
	}

	token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
	if err != nil {
		log.Debug("invalid id token", zap.String("path", r.URL.Path), zap.Error(err))
		return anon, nil
	}
	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return anon, nil
	}
	email, _ := token.Claims["email"].(string)

	s := guard.Session{
		State:  guard.Authenticated,
		Role:   role.Unknown,
		UserID: uid,
		Email:  strings.TrimSpace(email),
	}

	member, err := m.MemberRepo.GetByFirebaseUID(r.Context(), uid)
	switch {
	case errors.Is(err, memdom.ErrNotFound):
		log.Info("no member for uid", zap.String("uid", uid))
		return s, nil
	case err != nil:
		log.Warn("member lookup failed", zap.String("uid", uid), zap.Error(err))
		return guard.Session{State: guard.Resolving, UserID: uid}, nil
	case member.IsDeleted():
		return s, nil
	}

	s.Role = member.RoleValue()
	return s, &member
}

func (m *AuthMiddleware) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return t, t != ""
}

// CurrentSession returns the session resolved by AuthMiddleware. Requests that
// did not pass through it are Anonymous.
func CurrentSession(r *http.Request) guard.Session {
	if s, ok := r.Context().Value(ctxKeySession).(guard.Session); ok {
		return s
	}
	return guard.Session{State: guard.Anonymous}
}

// CurrentMember returns the signed-in member, if any.
func CurrentMember(r *http.Request) (memdom.Member, bool) {
	m, ok := r.Context().Value(ctxKeyMember).(memdom.Member)
	return m, ok
}

// WithSession attaches s (and optionally its member) to ctx the way
// AuthMiddleware does. Handler tests use it to skip token verification.
func WithSession(ctx context.Context, s guard.Session, m *memdom.Member) context.Context {
	ctx = context.WithValue(ctx, ctxKeySession, s)
	if m != nil {
		ctx = context.WithValue(ctx, ctxKeyMember, *m)
		ctx = usecase.WithActor(ctx, usecase.Actor{MemberID: m.ID, Role: m.RoleValue(), Branch: m.Branch})
	}
	return ctx
}
