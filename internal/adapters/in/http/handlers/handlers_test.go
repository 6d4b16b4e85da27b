package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

/* ---------------------------- fakes ---------------------------- */

// memberRepo implements the member.Repository methods the handlers reach.
type memberRepo struct {
	memdom.Repository

	mu    sync.Mutex
	items map[string]memdom.Member
}

func newMemberRepo(ms ...memdom.Member) *memberRepo {
	r := &memberRepo{items: map[string]memdom.Member{}}
	for _, m := range ms {
		r.items[m.ID] = m
	}
	return r
}

func (r *memberRepo) GetByID(_ context.Context, id string) (memdom.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return memdom.Member{}, memdom.ErrNotFound
	}
	return m, nil
}

func (r *memberRepo) Create(_ context.Context, m memdom.Member) (memdom.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; ok {
		return memdom.Member{}, memdom.ErrConflict
	}
	r.items[m.ID] = m
	return m, nil
}

func (r *memberRepo) Update(_ context.Context, id string, p memdom.MemberPatch) (memdom.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return memdom.Member{}, memdom.ErrNotFound
	}
	p.Apply(&m)
	r.items[id] = m
	return m, nil
}

func (r *memberRepo) List(_ context.Context, f memdom.Filter, _ common.Sort, _ common.Page) (common.PageResult[memdom.Member], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []memdom.Member{}
	for _, m := range r.items {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return common.PageResult[memdom.Member]{Items: out, TotalCount: len(out), TotalPages: 1, Page: 1, PerPage: 50}, nil
}

type provinceSource struct {
	counts map[string]int
	err    error
}

func (s provinceSource) Summary(_ context.Context, p statsdom.FilterParams) (statsdom.Summary, error) {
	if s.err != nil {
		return statsdom.Summary{}, &statsdom.RemoteError{Op: statsdom.OpSummary, Err: s.err}
	}
	total := 0
	for prov, n := range s.counts {
		if p.Province == "" || p.Province == prov {
			total += n
		}
	}
	return statsdom.Summary{Total: total, Active: total}, nil
}

func (s provinceSource) RegionStats(_ context.Context, p statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	if s.err != nil {
		return nil, &statsdom.RemoteError{Op: statsdom.OpRegions, Err: s.err}
	}
	out := []statsdom.RegionStat{}
	for prov, n := range s.counts {
		if p.Province == "" || p.Province == prov {
			out = append(out, statsdom.RegionStat{Province: prov, Count: n})
		}
	}
	statsdom.SortRegions(out)
	return out, nil
}

/* ---------------------------- fixtures ---------------------------- */

func testGuards() Guards {
	return Guards{
		Member:  guard.MemberGuard(nil, nil),
		Admin:   guard.AdminGuard(nil, nil),
		Central: guard.CentralAdminGuard(nil, nil),
	}
}

func mkMember(t *testing.T, id string, r role.Role, branch string) memdom.Member {
	t.Helper()
	m, err := memdom.New(id, "Dr. "+id, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		memdom.WithRole(r), memdom.WithLocation("Jawa Barat", branch, "Bandung"))
	require.NoError(t, err)
	return m
}

// as serves req through h with m signed in (nil means anonymous).
func as(h http.Handler, m *memdom.Member, req *http.Request) *httptest.ResponseRecorder {
	s := guard.Session{State: guard.Anonymous}
	if m != nil {
		s = guard.Session{State: guard.Authenticated, Role: m.RoleValue(), UserID: "uid-" + m.ID}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(httpmw.WithSession(req.Context(), s, m)))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

/* ---------------------------- members ---------------------------- */

func TestMemberHandler_Routes(t *testing.T) {
	central := mkMember(t, "c-1", role.CentralAdmin, "")
	branch := mkMember(t, "b-1", role.BranchAdmin, "Bandung")
	plain := mkMember(t, "m-1", role.Member, "Bandung")
	other := mkMember(t, "m-2", role.Member, "Bogor")

	repo := newMemberRepo(central, branch, plain, other)
	h := NewMemberHandler(usecase.NewMemberUsecase(repo, nil), testGuards())

	rec := as(h, &branch, httptest.NewRequest(http.MethodGet, "/members?branch=Bogor", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[common.PageResult[memdom.Member]](t, rec)
	for _, m := range page.Items {
		assert.Equal(t, "Bandung", m.Branch, "branch admins only see their branch")
	}

	rec = as(h, &plain, httptest.NewRequest(http.MethodGet, "/members", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = as(h, &plain, httptest.NewRequest(http.MethodGet, "/members/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-1", decode[memdom.Member](t, rec).ID)

	rec = as(h, nil, httptest.NewRequest(http.MethodGet, "/members/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = as(h, &branch, httptest.NewRequest(http.MethodGet, "/members/m-2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = as(h, &branch, httptest.NewRequest(http.MethodGet, "/members/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemberHandler_CreateAndRole(t *testing.T) {
	central := mkMember(t, "c-1", role.CentralAdmin, "")
	branch := mkMember(t, "b-1", role.BranchAdmin, "Bandung")
	repo := newMemberRepo(central, branch)
	h := NewMemberHandler(usecase.NewMemberUsecase(repo, nil), testGuards())

	body := `{"fullName":"dr. Sari","province":"jabar","branch":"Bogor","gender":"P"}`
	rec := as(h, &branch, httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[memdom.Member](t, rec)
	assert.Equal(t, "Bandung", created.Branch)
	assert.Equal(t, "Jawa Barat", created.Province)

	rec = as(h, &branch, httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(`{"fullName":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = as(h, &branch, httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(`{"bogus":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/members/" + created.ID + "/role"
	rec = as(h, &branch, httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"role":"admin_cabang"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = as(h, &central, httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"role":"superuser"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = as(h, &central, httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"role":"admin_cabang"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin_cabang", decode[memdom.Member](t, rec).Role)

	rec = as(h, &central, httptest.NewRequest(http.MethodGet, "/members/"+created.ID+"/photo", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

/* ---------------------------- stats ---------------------------- */

func TestStatsHandler(t *testing.T) {
	admin := mkMember(t, "c-1", role.CentralAdmin, "")
	src := provinceSource{counts: map[string]int{"Jawa Barat": 4, "Bali": 2}}
	h := NewStatsHandler(usecase.NewStatsUsecase(src, nil, time.Second), guard.AdminGuard(nil, nil))

	rec := as(h, &admin, httptest.NewRequest(http.MethodGet, "/stats/summary?province=jabar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[statsdom.Summary](t, rec).Total)

	rec = as(h, &admin, httptest.NewRequest(http.MethodGet, "/stats/regions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	regions := decode[struct {
		Items []statsdom.RegionStat `json:"items"`
	}](t, rec)
	assert.Equal(t, []statsdom.RegionStat{{Province: "Jawa Barat", Count: 4}, {Province: "Bali", Count: 2}}, regions.Items)

	rec = as(h, &admin, httptest.NewRequest(http.MethodGet, "/stats?province=Bali", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	both := decode[struct {
		Params      statsdom.FilterParams `json:"params"`
		Summary     statsdom.Summary      `json:"summary"`
		RegionStats []statsdom.RegionStat `json:"regionStats"`
	}](t, rec)
	assert.Equal(t, "Bali", both.Params.Province)
	assert.Equal(t, 2, both.Summary.Total)
	assert.Equal(t, []statsdom.RegionStat{{Province: "Bali", Count: 2}}, both.RegionStats)

	rec = as(h, nil, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = as(h, &admin, httptest.NewRequest(http.MethodGet, "/stats/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a branch admin without a branch is not widened to every branch
	branchless := mkMember(t, "b-0", role.BranchAdmin, "")
	for _, path := range []string{"/stats?branch=Bandung", "/stats/summary", "/stats/regions"} {
		rec = as(h, &branchless, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestStatsHandler_RemoteFailure(t *testing.T) {
	admin := mkMember(t, "c-1", role.CentralAdmin, "")
	src := provinceSource{err: errors.New("upstream unavailable")}
	h := NewStatsHandler(usecase.NewStatsUsecase(src, nil, time.Second), guard.AdminGuard(nil, nil))

	rec := as(h, &admin, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "upstream unavailable")
}

/* ---------------------------- session ---------------------------- */

func TestSessionHandler(t *testing.T) {
	plain := mkMember(t, "m-1", role.Member, "Bandung")
	admin := mkMember(t, "b-1", role.BranchAdmin, "Bandung")
	h := NewSessionHandler()

	rec := as(h, &plain, httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"next":"/payments"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionResponse](t, rec)
	assert.Equal(t, "/payments", got.Redirect)
	assert.Equal(t, "anggota", got.Role)
	require.NotNil(t, got.Member)
	assert.Equal(t, "m-1", got.Member.ID)

	rec = as(h, &admin, httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"next":"https://evil.example"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/dashboard", decode[sessionResponse](t, rec).Redirect)

	rec = as(h, nil, httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"next":"/payments"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login?next=%2Fpayments", decode[map[string]string](t, rec)["redirect"])

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(httpmw.WithSession(req.Context(), guard.Session{State: guard.Resolving}, nil)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{memdom.ErrNotFound, http.StatusNotFound},
		{memdom.ErrForbidden, http.StatusForbidden},
		{memdom.ErrConflict, http.StatusConflict},
		{usecase.ErrInvalidInput, http.StatusBadRequest},
		{role.ErrInvalidRole, http.StatusBadRequest},
		{&statsdom.RemoteError{Op: statsdom.OpSummary}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
