// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	appstats "github.com/Argy1/pdpi-member-sub002/internal/application/stats"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

// maxJSONBody bounds request bodies decoded by decodeJSON.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not_found")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

var badRequestErrs = []error{
	usecase.ErrInvalidInput,
	role.ErrInvalidRole,
	memdom.ErrInvalidID,
	memdom.ErrInvalidName,
	memdom.ErrInvalidEmail,
	memdom.ErrInvalidGender,
	memdom.ErrInvalidStatus,
	memdom.ErrInvalidRole,
	memdom.ErrInvalidCreatedAt,
	paydom.ErrInvalidID,
	paydom.ErrInvalidMemberID,
	paydom.ErrInvalidPeriod,
	paydom.ErrInvalidAmount,
	paydom.ErrInvalidStatus,
	paydom.ErrInvalidPaidAt,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var remote *statsdom.RemoteError
	switch {
	case errors.Is(err, memdom.ErrNotFound), errors.Is(err, paydom.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, memdom.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, memdom.ErrConflict), errors.Is(err, paydom.ErrConflict), errors.Is(err, paydom.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrPhotoStoreMissing):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote):
		return http.StatusBadGateway
	}
	for _, e := range badRequestErrs {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeDomainErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal server error"
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		msg = appstats.ErrorMessage(err)
	}
	writeError(w, status, msg)
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

// statsParams reads the filter dimensions shared by the statistics endpoints.
func statsParams(r *http.Request) statsdom.FilterParams {
	q := r.URL.Query()
	return statsdom.FilterParams{
		Query:    q.Get("q"),
		Province: q.Get("province"),
		Branch:   q.Get("branch"),
		City:     q.Get("city"),
		Status:   q.Get("status"),
		Gender:   q.Get("gender"),
	}
}

// splitPath returns the non-empty segments of the path after prefix.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
