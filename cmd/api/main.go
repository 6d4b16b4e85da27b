// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpin "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	appcfg "github.com/Argy1/pdpi-member-sub002/internal/infra/config"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/logging"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
	"github.com/Argy1/pdpi-member-sub002/internal/platform/di"
)

func main() {
	ctx := context.Background()
	cfg := appcfg.Load()

	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	boot := log.Named("boot")

	// ─────────────────────────────────────────────────────────────
	// healthz + metrics first; they stay up even if DI fails
	// ─────────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	// ─────────────────────────────────────────────────────────────
	// DI container & app routes
	// ─────────────────────────────────────────────────────────────
	initCtx, cancelInit := context.WithTimeout(ctx, 2*time.Minute)
	cont, err := di.NewContainer(initCtx, cfg, log)
	cancelInit()
	if err != nil {
		boot.Warn("di init failed; serving /healthz and /metrics only", zap.Error(err))
	} else {
		defer cont.Close()

		deps := cont.RouterDeps()
		if cont.FirebaseAuth == nil {
			boot.Warn("firebase auth unavailable; every request is anonymous")
		}
		boot.Info("router deps",
			zap.String("memberRepo", fmt.Sprintf("%T", cont.MemberRepo)),
			zap.String("statsSource", fmt.Sprintf("%T", cont.StatsSource)),
		)
		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := cont.Ping(ctx); err != nil {
				boot.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("/", httpin.NewRouter(deps))
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	var handler http.Handler = mux
	if cont == nil {
		handler = middleware.CORS(cfg.CORSAllowedOrigin)(mux)
	}

	// no WriteTimeout: /stats/stream connections are long-lived and
	// manage their own deadlines
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		boot.Info("received signal; shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			boot.Error("server shutdown error", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	boot.Info("listening", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		boot.Fatal("server error", zap.Error(err))
	}

	<-idleConnsClosed
	boot.Info("server stopped")
}

