// Package main is the entry point for the KM Tracker API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/km-tracker/internal/config"
	"github.com/fleetops/km-tracker/internal/geofix"
	"github.com/fleetops/km-tracker/internal/handler"
	"github.com/fleetops/km-tracker/internal/middleware"
	"github.com/fleetops/km-tracker/internal/repo"
	"github.com/fleetops/km-tracker/internal/service"
	"github.com/fleetops/km-tracker/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Services ---------------------------------------------------------
	logs := repo.NewJourneyLogRepo(pool)
	drivers := repo.NewDriverRepo(pool)
	assignments := repo.NewAssignmentRepo(pool)

	journeys := service.NewJourneyService(logs, drivers, cfg.MaxPhotoBytes)
	summaries := service.NewSummaryService(logs, drivers, assignments)

	srv := handler.NewServer(journeys, summaries, middleware.DriverIDFromContext)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	// Photo payloads are the only large bodies; base64 inflates the raw image
	// by ~4/3, plus headroom for the rest of the JSON envelope.
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxPhotoBytes*4/3 + 64*1024))

	r.Get("/healthz", srv.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	// Authenticated API routes. The fleet-wide summary additionally requires
	// a supervisory role; everything else is scoped to the caller's own
	// driver id extracted from the token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthenticator([]byte(cfg.JWTSecret)))

		// The driver app fetches its GPS and photo capture parameters from
		// here, so tuning the thresholds needs no app release.
		gpsCfg := geofix.DefaultConfig()
		gpsCfg.PrimaryMaxAge = cfg.GPSPrimaryMaxAge
		gpsCfg.FallbackMaxAge = cfg.GPSFallbackMaxAge
		r.Get("/capture-policy", handler.NewCapturePolicy(gpsCfg, cfg.MaxPhotoBytes))

		srv.Register(r, middleware.RequireSupervisor)
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
