// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/handlers"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
)

// RouterDeps collects the usecases and HTTP collaborators built by the container.
type RouterDeps struct {
	MemberUC    *usecase.MemberUsecase
	PaymentUC   *usecase.PaymentUsecase
	StatsUC     *usecase.StatsUsecase
	MigrationUC *usecase.MigrationUsecase

	Auth   *middleware.AuthMiddleware
	Guards handlers.Guards

	AllowedOrigins string
	Logger         *zap.Logger
}

// NewRouter mounts every route whose usecase is present.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/auth/session", handlers.NewSessionHandler())

	if deps.MemberUC != nil {
		h := handlers.NewMemberHandler(deps.MemberUC, deps.Guards)
		mux.Handle("/members", h)
		mux.Handle("/members/", h)
	}

	if deps.PaymentUC != nil {
		h := handlers.NewPaymentHandler(deps.PaymentUC, deps.Guards)
		mux.Handle("/payments", h)
		mux.Handle("/payments/", h)
	}

	if deps.StatsUC != nil {
		h := handlers.NewStatsHandler(deps.StatsUC, deps.Guards.Admin)
		mux.Handle("/stats", h)
		mux.Handle("/stats/", h)
		mux.Handle("/stats/stream", handlers.NewStatsStreamHandler(deps.StatsUC, deps.Guards.Admin, deps.AllowedOrigins, log))
	}

	if deps.MigrationUC != nil {
		mux.Handle("/admin/migrations/", handlers.NewMigrationHandler(deps.MigrationUC, deps.Guards.Central))
	}

	mws := []func(http.Handler) http.Handler{
		middleware.Recover(log),
		middleware.AccessLog(log.Named("http")),
		middleware.CORS(deps.AllowedOrigins),
	}
	if deps.Auth != nil {
		mws = append(mws, deps.Auth.Handler)
	}
	return middleware.Chain(mux, mws...)
}
