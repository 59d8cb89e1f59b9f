package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetops/km-tracker/internal/domain"
)

// startRequest is the body of POST /km-log/start.
// Latitude/longitude are pointers so an absent coordinate can be told apart
// from a genuine 0 (the equator and the prime meridian are valid positions).
// The photo travels as a base64 string inside the JSON body, not multipart.
type startRequest struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	AccuracyM  *float64   `json:"accuracy_m,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"` // device clock at acquisition; server time when omitted
	StartPhoto string     `json:"start_photo"`
	Remarks    string     `json:"remarks,omitempty"`
}

// endRequest is the body of POST /km-log/end.
type endRequest struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	AccuracyM  *float64   `json:"accuracy_m,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	EndPhoto   string     `json:"end_photo"`
}

// GetTodayLog handles GET /km-log/today.
// It returns the authenticated driver's current log, or a synthesized PENDING
// representation when today has no row yet.
func (s *Server) GetTodayLog(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.caller(w, r)
	if !ok {
		return
	}

	log, err := s.journeys.TodayStatus(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, log)
}

// StartJourney handles POST /km-log/start.
func (s *Server) StartJourney(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	fix, ok := requestToFix(w, req.Latitude, req.Longitude, req.AccuracyM, req.CapturedAt)
	if !ok {
		return
	}

	created, err := s.journeys.StartJourney(r.Context(), driverID, fix, req.StartPhoto, req.Remarks)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// EndJourney handles POST /km-log/end.
// On success the response carries the COMPLETED log including the computed
// total_km.
func (s *Server) EndJourney(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	fix, ok := requestToFix(w, req.Latitude, req.Longitude, req.AccuracyM, req.CapturedAt)
	if !ok {
		return
	}

	completed, err := s.journeys.EndJourney(r.Context(), driverID, fix, req.EndPhoto)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completed)
}

// requestToFix assembles a GeoFix from request fields, writing a 422 and
// returning ok=false when the coordinates are absent. Range validation
// happens in the service; only presence is checked here.
func requestToFix(w http.ResponseWriter, lat, lon, acc *float64, capturedAt *time.Time) (domain.GeoFix, bool) {
	if lat == nil || lon == nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "GPS coordinates are required")
		return domain.GeoFix{}, false
	}
	fix := domain.GeoFix{
		Latitude:  *lat,
		Longitude: *lon,
		AccuracyM: acc,
	}
	if capturedAt != nil {
		fix.CapturedAt = *capturedAt
	}
	return fix, true
}
