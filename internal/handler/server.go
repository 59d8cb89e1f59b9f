// Package handler implements the HTTP handlers for the KM Tracker API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (journey.go, summary.go, health.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/km-tracker/internal/domain"
)

// JourneyServicer defines the journey state-machine operations the handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without touching the database or service layer.
type JourneyServicer interface {
	StartJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string, remarks string) (domain.JourneyLog, error)
	EndJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string) (domain.JourneyLog, error)
	TodayStatus(ctx context.Context, driverID uuid.UUID) (domain.JourneyLog, error)
}

// SummaryServicer defines the read-only rollup operations the handlers depend on.
type SummaryServicer interface {
	DriverDay(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DriverDaySummary, error)
	AllDrivers(ctx context.Context, date time.Time, page domain.PaginationParams) ([]domain.DriverDaySummary, error)
}

// DriverIDFunc extracts the authenticated driver's id from a request context.
// The auth middleware owns how identity travels; handlers only consume it.
type DriverIDFunc func(ctx context.Context) (uuid.UUID, bool)

// Server implements all API endpoints.
type Server struct {
	journeys  JourneyServicer
	summaries SummaryServicer
	driverID  DriverIDFunc
}

// NewServer constructs the Server with all its dependencies.
func NewServer(journeys JourneyServicer, summaries SummaryServicer, driverID DriverIDFunc) *Server {
	return &Server{journeys: journeys, summaries: summaries, driverID: driverID}
}

// Register mounts every API route on the given router. Authentication is
// applied by the caller's middleware stack; routes here assume the driver
// identity is already in the context. The fleet-wide summary is additionally
// wrapped in supervisorOnly, which the caller supplies (role middleware in
// production, a pass-through in tests).
func (s *Server) Register(r chi.Router, supervisorOnly func(http.Handler) http.Handler) {
	r.Get("/km-log/today", s.GetTodayLog)
	r.Post("/km-log/start", s.StartJourney)
	r.Post("/km-log/end", s.EndJourney)
	r.Get("/summary/{date}", s.GetDriverSummary)
	r.With(supervisorOnly).Get("/all-summary", s.GetAllSummaries)
}

// caller returns the authenticated driver id, writing a 401 if absent.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := s.driverID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "driver identity missing from request")
		return uuid.UUID{}, false
	}
	return id, true
}
