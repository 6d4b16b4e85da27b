package guard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

type notice struct {
	title, message string
	severity       Severity
}

type recordingNotifier struct {
	mu   sync.Mutex
	got  []notice
	fail error
}

func (n *recordingNotifier) Notify(_ context.Context, title, message string, s Severity) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notice{title, message, s})
	return n.fail
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.got)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		can     role.Capability
		want    Decision
	}{
		{
			name:    "resolving renders loading",
			session: Session{State: Resolving},
			can:     role.AnyAdmin,
			want:    Decision{Kind: RenderLoading},
		},
		{
			name:    "anonymous goes to login with return path",
			session: Session{State: Anonymous},
			can:     role.AnyAdmin,
			want:    Decision{Kind: Redirect, Target: "/login?next=%2Fmembers%3Fpage%3D2"},
		},
		{
			name:    "branch admin passes admin guard",
			session: Session{State: Authenticated, Role: role.BranchAdmin},
			can:     role.AnyAdmin,
			want:    Decision{Kind: RenderChildren},
		},
		{
			name:    "member denied by admin guard",
			session: Session{State: Authenticated, Role: role.Member},
			can:     role.AnyAdmin,
			want:    Decision{Kind: Redirect, Target: "/profile", Denied: true},
		},
		{
			name:    "branch admin denied by central guard",
			session: Session{State: Authenticated, Role: role.BranchAdmin},
			can:     role.CentralAdminOnly,
			want:    Decision{Kind: Redirect, Target: "/dashboard", Denied: true},
		},
		{
			name:    "central admin passes central guard",
			session: Session{State: Authenticated, Role: role.CentralAdmin},
			can:     role.CentralAdminOnly,
			want:    Decision{Kind: RenderChildren},
		},
		{
			name:    "unknown role falls back to root",
			session: Session{State: Authenticated, Role: role.Unknown},
			can:     role.AnyMember,
			want:    Decision{Kind: Redirect, Target: "/", Denied: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.session, "/members?page=2", tt.can))
		})
	}
}

func TestLoginRoundTrip(t *testing.T) {
	target := LoginRedirect("/admin/payments")
	assert.Equal(t, "/login?next=%2Fadmin%2Fpayments", target)

	next := target[len("/login?next="):]
	assert.Equal(t, "/admin/payments", ReturnPath(unescape(t, next), role.CentralAdmin))
}

func unescape(t *testing.T, s string) string {
	t.Helper()
	out, err := url.QueryUnescape(s)
	require.NoError(t, err)
	return out
}

func TestReturnPath(t *testing.T) {
	tests := []struct {
		next string
		r    role.Role
		want string
	}{
		{"/members/42", role.Member, "/members/42"},
		{"", role.Member, "/profile"},
		{"", role.BranchAdmin, "/dashboard"},
		{"https://evil.example/x", role.Member, "/profile"},
		{"//evil.example/x", role.Member, "/profile"},
		{"/login?next=/x", role.CentralAdmin, "/dashboard"},
		{"members", role.Member, "/profile"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, ReturnPath(tt.next, tt.r))
		})
	}
}

func TestLoginRedirect_DoesNotLoop(t *testing.T) {
	assert.Equal(t, LoginPath, LoginRedirect("/login"))
	assert.Equal(t, LoginPath, LoginRedirect("https://elsewhere"))
}

func TestGuard_NotifiesOncePerDeniedAttempt(t *testing.T) {
	n := &recordingNotifier{}
	g := AdminGuard(n, nil)
	ctx := context.Background()

	d := g.Check(ctx, Session{State: Authenticated, Role: role.Member}, "/dashboard")
	assert.True(t, d.Denied)
	assert.Equal(t, "/profile", d.Target)
	require.Equal(t, 1, n.count())
	assert.Equal(t, DeniedTitle, n.got[0].title)
	assert.Equal(t, SeverityError, n.got[0].severity)

	g.Check(ctx, Session{State: Authenticated, Role: role.Member}, "/dashboard")
	assert.Equal(t, 2, n.count())
}

func TestGuard_NoNotificationWhenNotDenied(t *testing.T) {
	n := &recordingNotifier{}
	g := CentralAdminGuard(n, nil)
	ctx := context.Background()

	assert.Equal(t, RenderLoading, g.Check(ctx, Session{State: Resolving}, "/admin").Kind)
	assert.Equal(t, Redirect, g.Check(ctx, Session{State: Anonymous}, "/admin").Kind)
	assert.Equal(t, RenderChildren, g.Check(ctx, Session{State: Authenticated, Role: role.CentralAdmin}, "/admin").Kind)
	assert.Zero(t, n.count())
}

func TestGuard_NotifierFailureKeepsDecision(t *testing.T) {
	n := &recordingNotifier{fail: errors.New("smtp down")}
	g := AdminGuard(n, nil)

	d := g.Check(context.Background(), Session{State: Authenticated, Role: role.Member}, "/x")
	assert.Equal(t, Decision{Kind: Redirect, Target: "/profile", Denied: true}, d)
	assert.Equal(t, 1, n.count())
}
