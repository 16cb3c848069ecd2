// Package server wires the HTTP surface and runs it until shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnimonni/gridscan/internal/core/config"
	"github.com/onnimonni/gridscan/internal/core/health"
	"github.com/onnimonni/gridscan/internal/core/middleware"
	"github.com/onnimonni/gridscan/internal/core/router"
	"github.com/onnimonni/gridscan/internal/met"
)

type Deps struct {
	Tables    router.TableFactory
	Point     *met.Client
	Readiness health.ReadinessReporter
}

// Run serves until ctx is canceled, then drains with a bounded shutdown.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Readiness))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/v1/gfs", router.HandleForecast(logger, deps.Tables, cfg.BatchSize))
	r.Get("/v1/point", router.HandlePoint(logger, deps.Point))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// scans stream many resources; give them room to finish
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
