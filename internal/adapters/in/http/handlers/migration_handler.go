// internal/adapters/in/http/handlers/migration_handler.go
package handlers

import (
	"net/http"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
)

// MigrationHandler serves POST /admin/migrations/normalize-provinces[?dryRun=true].
type MigrationHandler struct {
	uc    *usecase.MigrationUsecase
	guard *guard.Guard
}

func NewMigrationHandler(uc *usecase.MigrationUsecase, g *guard.Guard) http.Handler {
	return &MigrationHandler{uc: uc, guard: g}
}

func (h *MigrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := splitPath(r.URL.Path, "/admin/migrations")
	if len(seg) != 1 || seg[0] != "normalize-provinces" {
		notFound(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !httpmw.Authorize(w, r, h.guard) {
		return
	}
	res, err := h.uc.NormalizeProvinces(r.Context(), parseBool(r.URL.Query().Get("dryRun")))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
