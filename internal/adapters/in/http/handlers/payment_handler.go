// internal/adapters/in/http/handlers/payment_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	httpmw "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
)

type PaymentHandler struct {
	uc     *usecase.PaymentUsecase
	guards Guards
}

func NewPaymentHandler(uc *usecase.PaymentUsecase, guards Guards) http.Handler {
	return &PaymentHandler{uc: uc, guards: guards}
}

// ServeHTTP routes
//
//	GET  /payments                 list; plain members get their own (member)
//	POST /payments                 record a payment (admin)
//	POST /payments/{id}/verify     (admin)
//	POST /payments/{id}/reject     (admin)
func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := splitPath(r.URL.Path, "/payments")

	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		if httpmw.Authorize(w, r, h.guards.Member) {
			h.list(w, r)
		}
	case len(seg) == 0 && r.Method == http.MethodPost:
		if httpmw.Authorize(w, r, h.guards.Admin) {
			h.record(w, r)
		}
	case len(seg) == 2 && r.Method == http.MethodPost && (seg[1] == "verify" || seg[1] == "reject"):
		next := paydom.StatusVerified
		if seg[1] == "reject" {
			next = paydom.StatusRejected
		}
		if httpmw.Authorize(w, r, h.guards.Admin) {
			h.settle(w, r, seg[0], next)
		}
	case len(seg) <= 2:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	f := paydom.Filter{
		MemberID: strings.TrimSpace(qv.Get("memberId")),
		Period:   strings.TrimSpace(qv.Get("period")),
		Status:   paydom.Status(strings.ToLower(strings.TrimSpace(qv.Get("status")))),
	}
	if f.Status != "" && !paydom.IsValidStatus(f.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	items, err := h.uc.List(r.Context(), f, parseIntDefault(qv.Get("limit"), usecase.DefaultPaymentListLimit))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type paymentRecordRequest struct {
	MemberID  string    `json:"memberId"`
	Period    string    `json:"period"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paidAt"`
}

func (h *PaymentHandler) record(w http.ResponseWriter, r *http.Request) {
	var req paymentRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.uc.Record(r.Context(), usecase.RecordPaymentInput{
		MemberID:  strings.TrimSpace(req.MemberID),
		Period:    strings.TrimSpace(req.Period),
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    req.PaidAt,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) settle(w http.ResponseWriter, r *http.Request, id string, next paydom.Status) {
	p, err := h.uc.Settle(r.Context(), id, next)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
