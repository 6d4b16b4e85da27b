// internal/adapters/in/http/handlers/stats_handler.go
package handlers

import (
	"net/http"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
)

// StatsHandler serves one-shot statistics reads. Every route takes the
// filter dimensions as query parameters (q, province, branch, city, status,
// gender); refresh=true reads through any cache.
//
//	GET /stats            summary and regions as one consistent pair
//	GET /stats/summary
//	GET /stats/regions
type StatsHandler struct {
	uc    *usecase.StatsUsecase
	guard *guard.Guard
}

func NewStatsHandler(uc *usecase.StatsUsecase, g *guard.Guard) http.Handler {
	return &StatsHandler{uc: uc, guard: g}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	seg := splitPath(r.URL.Path, "/stats")
	if len(seg) > 1 || (len(seg) == 1 && seg[0] != "summary" && seg[0] != "regions") {
		notFound(w)
		return
	}
	if !httpmw.Authorize(w, r, h.guard) {
		return
	}

	ctx := r.Context()
	p := statsParams(r)
	fresh := parseBool(r.URL.Query().Get("refresh"))

	switch {
	case len(seg) == 0:
		s, err := h.uc.Snapshot(ctx, p, fresh)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"params":      s.Params,
			"summary":     s.Summary,
			"regionStats": s.RegionStats,
		})

	case seg[0] == "summary":
		s, err := h.uc.Summary(ctx, p, fresh)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)

	default:
		rs, err := h.uc.RegionStats(ctx, p, fresh)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rs})
	}
}
