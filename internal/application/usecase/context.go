// internal/application/usecase/context.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

// ErrBranchUnassigned is returned for a branch admin whose profile names no
// branch. Such a caller is confined to nothing, so every scoped query is denied.
var ErrBranchUnassigned = fmt.Errorf("%w: branch admin has no branch", memdom.ErrForbidden)

// Actor is the authenticated caller as seen by usecases.
type Actor struct {
	MemberID string
	Role     role.Role
	Branch   string
}

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// WithActor is called by the auth middleware once the caller is resolved.
func WithActor(ctx context.Context, a Actor) context.Context {
	a.MemberID = strings.TrimSpace(a.MemberID)
	a.Branch = strings.TrimSpace(a.Branch)
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the caller. ok is false for system callers (CLI, jobs).
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}

// scopedBranch is the branch a branch admin is confined to; "" means unscoped
// (central admins, members, system callers).
func scopedBranch(ctx context.Context) (string, error) {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Role != role.BranchAdmin {
		return "", nil
	}
	if a.Branch == "" {
		return "", ErrBranchUnassigned
	}
	return a.Branch, nil
}

func actorID(ctx context.Context) string {
	a, _ := ActorFromContext(ctx)
	return a.MemberID
}
