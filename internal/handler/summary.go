package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/km-tracker/internal/domain"
)

// summaryListResponse is the body of GET /all-summary.
type summaryListResponse struct {
	Data       []domain.DriverDaySummary `json:"data"`
	Pagination pagination                `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// GetDriverSummary handles GET /summary/{date}.
// It returns the authenticated driver's own rollup for the date.
func (s *Server) GetDriverSummary(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.caller(w, r)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "date must be formatted YYYY-MM-DD")
		return
	}

	summary, err := s.summaries.DriverDay(r.Context(), driverID, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetAllSummaries handles GET /all-summary?target_date=&page=&limit=.
// target_date defaults to today. Role gating (supervisors only) is applied by
// middleware before the request reaches here.
func (s *Server) GetAllSummaries(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("target_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "target_date must be formatted YYYY-MM-DD")
			return
		}
		date = parsed
	}

	page := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	summaries, err := s.summaries.AllDrivers(r.Context(), date, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.DriverDaySummary{}
	}

	writeJSON(w, http.StatusOK, summaryListResponse{
		Data:       summaries,
		Pagination: pagination{Page: page.Page, Limit: page.Limit},
	})
}

// queryInt parses an optional integer query parameter, returning nil when
// absent or malformed.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
