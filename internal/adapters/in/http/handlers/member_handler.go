// internal/adapters/in/http/handlers/member_handler.go
package handlers

import (
	"io"
	"net/http"
	"strings"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

// Guards are the route guards handlers check per route.
type Guards struct {
	Member  *guard.Guard
	Admin   *guard.Guard
	Central *guard.Guard
}

// -----------------------------------------------------------------------------
// MemberHandler
// -----------------------------------------------------------------------------
type MemberHandler struct {
	uc     *usecase.MemberUsecase
	guards Guards
}

func NewMemberHandler(uc *usecase.MemberUsecase, guards Guards) http.Handler {
	return &MemberHandler{uc: uc, guards: guards}
}

// ServeHTTP routes
//
//	GET    /members              list (admin)
//	POST   /members              create (admin)
//	GET    /members/me           own profile (member)
//	GET    /members/{id}         detail (admin)
//	PATCH  /members/{id}         update (admin)
//	DELETE /members/{id}         soft delete (admin)
//	PUT    /members/{id}/role    assign role (central admin)
//	PUT    /members/{id}/photo   upload photo, raw body (admin)
//	GET    /members/{id}/photo   redirect to a signed URL (admin)
func (h *MemberHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := splitPath(r.URL.Path, "/members")

	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.with(h.guards.Admin, h.list)(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		h.with(h.guards.Admin, h.create)(w, r)
	case len(seg) == 0:
		methodNotAllowed(w)

	case len(seg) == 1 && seg[0] == "me" && r.Method == http.MethodGet:
		h.with(h.guards.Member, h.me)(w, r)

	case len(seg) == 1:
		id := seg[0]
		switch r.Method {
		case http.MethodGet:
			h.with(h.guards.Admin, func(w http.ResponseWriter, r *http.Request) { h.get(w, r, id) })(w, r)
		case http.MethodPatch:
			h.with(h.guards.Admin, func(w http.ResponseWriter, r *http.Request) { h.update(w, r, id) })(w, r)
		case http.MethodDelete:
			h.with(h.guards.Admin, func(w http.ResponseWriter, r *http.Request) { h.delete(w, r, id) })(w, r)
		default:
			methodNotAllowed(w)
		}

	case len(seg) == 2 && seg[1] == "role" && r.Method == http.MethodPut:
		id := seg[0]
		h.with(h.guards.Central, func(w http.ResponseWriter, r *http.Request) { h.setRole(w, r, id) })(w, r)

	case len(seg) == 2 && seg[1] == "photo" && r.Method == http.MethodPut:
		id := seg[0]
		h.with(h.guards.Admin, func(w http.ResponseWriter, r *http.Request) { h.uploadPhoto(w, r, id) })(w, r)

	case len(seg) == 2 && seg[1] == "photo" && r.Method == http.MethodGet:
		id := seg[0]
		h.with(h.guards.Admin, func(w http.ResponseWriter, r *http.Request) { h.photo(w, r, id) })(w, r)

	default:
		notFound(w)
	}
}

func (h *MemberHandler) with(g *guard.Guard, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httpmw.Authorize(w, r, g) {
			fn(w, r)
		}
	}
}

// -----------------------------------------------------------------------------
// GET /members
// -----------------------------------------------------------------------------
func (h *MemberHandler) list(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()

	f := memdom.Filter{
		SearchQuery: qv.Get("q"),
		Province:    qv.Get("province"),
		Branch:      qv.Get("branch"),
		City:        qv.Get("city"),
		Status:      qv.Get("status"),
		Gender:      qv.Get("gender"),
		Role:        qv.Get("role"),
	}
	if s := httpmw.CurrentSession(r); s.Role == role.CentralAdmin {
		f.IncludeDeleted = parseBool(qv.Get("includeDeleted"))
	}
	sort := common.Sort{
		Column: strings.TrimSpace(qv.Get("sort")),
		Order:  common.SortOrder(strings.ToLower(strings.TrimSpace(qv.Get("order")))),
	}
	page := common.Page{
		Number:  parseIntDefault(qv.Get("page"), 1),
		PerPage: parseIntDefault(qv.Get("perPage"), 50),
	}

	res, err := h.uc.List(r.Context(), f, sort, page)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// GET /members/me, GET /members/{id}
// -----------------------------------------------------------------------------
func (h *MemberHandler) me(w http.ResponseWriter, r *http.Request) {
	m, err := h.uc.Me(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.uc.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// -----------------------------------------------------------------------------
// POST /members
// -----------------------------------------------------------------------------
type memberCreateRequest struct {
	ID          string `json:"id"`
	NPA         string `json:"npa"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Gender      string `json:"gender"`
	Province    string `json:"province"`
	Branch      string `json:"branch"`
	City        string `json:"city"`
	Status      string `json:"status,omitempty"`
	Role        string `json:"role,omitempty"`
	FirebaseUID string `json:"firebaseUid,omitempty"`
}

func (h *MemberHandler) create(w http.ResponseWriter, r *http.Request) {
	var req memberCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.uc.Create(r.Context(), usecase.CreateMemberInput{
		ID:          req.ID,
		NPA:         req.NPA,
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Gender:      req.Gender,
		Province:    req.Province,
		Branch:      req.Branch,
		City:        req.City,
		Status:      req.Status,
		Role:        req.Role,
		FirebaseUID: req.FirebaseUID,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// -----------------------------------------------------------------------------
// PATCH /members/{id}
// -----------------------------------------------------------------------------
type memberUpdateRequest struct {
	NPA      *string `json:"npa,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Province *string `json:"province,omitempty"`
	Branch   *string `json:"branch,omitempty"`
	City     *string `json:"city,omitempty"`
	Status   *string `json:"status,omitempty"`
}

func (h *MemberHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req memberUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.uc.Update(r.Context(), id, usecase.UpdateMemberInput{
		NPA:      req.NPA,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Province: req.Province,
		Branch:   req.Branch,
		City:     req.City,
		Status:   req.Status,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.uc.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// PUT /members/{id}/role
// -----------------------------------------------------------------------------
type roleRequest struct {
	Role string `json:"role"`
}

func (h *MemberHandler) setRole(w http.ResponseWriter, r *http.Request, id string) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rl, err := role.Parse(req.Role)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	m, err := h.uc.SetRole(r.Context(), id, rl)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// -----------------------------------------------------------------------------
// PUT|GET /members/{id}/photo
// -----------------------------------------------------------------------------
func (h *MemberHandler) uploadPhoto(w http.ResponseWriter, r *http.Request, id string) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, usecase.MaxPhotoBytes+1))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}
	ct := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	m, err := h.uc.UploadPhoto(r.Context(), id, ct, data)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) photo(w http.ResponseWriter, r *http.Request, id string) {
	u, err := h.uc.PhotoURL(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}
