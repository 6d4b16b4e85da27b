package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

func withMember(m *memdom.Member, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := guard.Session{State: guard.Authenticated, Role: m.RoleValue()}
		next.ServeHTTP(w, r.WithContext(httpmw.WithSession(r.Context(), s, m)))
	})
}

// readUntil reads state messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(streamServerMessage) bool) streamServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg streamServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "state", msg.Type)
		if match(msg) {
			return msg
		}
	}
}

func settled(msg streamServerMessage) bool { return !msg.State.Loading }

func TestStatsStream_Session(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	admin := mkMember(t, "b-1", role.BranchAdmin, "Bandung")
	src := provinceSource{counts: map[string]int{"Jawa Barat": 4, "Bali": 2}}
	uc := usecase.NewStatsUsecase(src, nil, time.Second)
	h := NewStatsStreamHandler(uc, guard.AdminGuard(nil, nil), "", nil)

	srv := httptest.NewServer(withMember(&admin, h))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stats/stream?province=jabar"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	first := readUntil(t, conn, settled)
	assert.Equal(t, "Jawa Barat", first.State.Params.Province)
	assert.Equal(t, "Bandung", first.State.Params.Branch, "branch admins are pinned to their branch")
	assert.Equal(t, 4, first.State.Summary.Total)
	assert.Empty(t, first.State.Err)

	require.NoError(t, conn.WriteJSON(streamClientMessage{
		Type:   msgParams,
		Params: statsdom.FilterParams{Province: "bali", Branch: "Bogor"},
	}))
	next := readUntil(t, conn, func(m streamServerMessage) bool {
		return settled(m) && m.State.Params.Province == "Bali"
	})
	assert.Equal(t, "Bandung", next.State.Params.Branch)
	assert.Equal(t, 2, next.State.Summary.Total)
	assert.Equal(t, []statsdom.RegionStat{{Province: "Bali", Count: 2}}, next.State.RegionStats)

	require.NoError(t, conn.WriteJSON(streamClientMessage{Type: msgRefresh}))
	refreshed := readUntil(t, conn, func(m streamServerMessage) bool {
		return settled(m) && m.State.RefreshToken == 1
	})
	assert.Equal(t, 2, refreshed.State.Summary.Total)
	assert.Greater(t, refreshed.State.Generation, next.State.Generation)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestStatsStream_RejectsBeforeUpgrade(t *testing.T) {
	tests := []struct {
		name   string
		member memdom.Member
	}{
		{"plain member", mkMember(t, "m-1", role.Member, "Bandung")},
		{"branch admin without branch", mkMember(t, "b-0", role.BranchAdmin, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewStatsUsecase(provinceSource{}, nil, time.Second)
			h := NewStatsStreamHandler(uc, guard.AdminGuard(nil, nil), "", nil)

			srv := httptest.NewServer(withMember(&tt.member, h))
			defer srv.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stats/stream"
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("https://app.pdpi.example")

	req := httptest.NewRequest(http.MethodGet, "http://api.pdpi.example/stats/stream", nil)
	assert.True(t, check(req), "no Origin header")

	req.Header.Set("Origin", "https://app.pdpi.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://api.pdpi.example")
	assert.True(t, check(req), "same host")
}
