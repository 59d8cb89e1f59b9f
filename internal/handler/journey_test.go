package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/km-tracker/internal/domain"
	"github.com/fleetops/km-tracker/internal/handler"
)

// mockJourneyServicer is a test double for handler.JourneyServicer.
// Set only the method fields your test needs.
type mockJourneyServicer struct {
	startJourney func(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string, remarks string) (domain.JourneyLog, error)
	endJourney   func(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string) (domain.JourneyLog, error)
	todayStatus  func(ctx context.Context, driverID uuid.UUID) (domain.JourneyLog, error)
}

func (m *mockJourneyServicer) StartJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string, remarks string) (domain.JourneyLog, error) {
	return m.startJourney(ctx, driverID, fix, photoRef, remarks)
}
func (m *mockJourneyServicer) EndJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string) (domain.JourneyLog, error) {
	return m.endJourney(ctx, driverID, fix, photoRef)
}
func (m *mockJourneyServicer) TodayStatus(ctx context.Context, driverID uuid.UUID) (domain.JourneyLog, error) {
	return m.todayStatus(ctx, driverID)
}

// compile-time check: mockJourneyServicer must satisfy handler.JourneyServicer.
var _ handler.JourneyServicer = (*mockJourneyServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// testDriverID is the identity the fake auth layer injects for every request.
var testDriverID = uuid.MustParse("3d7a4c1e-0b6f-4a2d-9c58-1f2e3a4b5c6d")

// passThrough stands in for the supervisor role middleware.
func passThrough(next http.Handler) http.Handler { return next }

// newHTTPHandler wires a Server with the given mocks into a chi router the
// same way main.go does, with a stub identity extractor standing in for the
// JWT middleware.
func newHTTPHandler(journeys handler.JourneyServicer, summaries handler.SummaryServicer) http.Handler {
	srv := handler.NewServer(journeys, summaries, func(context.Context) (uuid.UUID, bool) {
		return testDriverID, true
	})
	r := chi.NewRouter()
	srv.Register(r, passThrough)
	return r
}

// newUnauthenticatedHandler wires a Server whose identity extractor finds no
// driver in the context.
func newUnauthenticatedHandler(journeys handler.JourneyServicer) http.Handler {
	srv := handler.NewServer(journeys, nil, func(context.Context) (uuid.UUID, bool) {
		return uuid.UUID{}, false
	})
	r := chi.NewRouter()
	srv.Register(r, passThrough)
	return r
}

const testPhoto = "cHJvb2Ygc2hvdA=="

func inProgressLog(driverID uuid.UUID) domain.JourneyLog {
	acc := 8.5
	return domain.JourneyLog{
		ID:            uuid.New(),
		DriverID:      driverID,
		LogDate:       time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
		Status:        domain.StatusInProgress,
		VehicleNumber: "DL-01-AB-1234",
		StartFix: &domain.GeoFix{
			Latitude:   28.6139,
			Longitude:  77.2090,
			AccuracyM:  &acc,
			CapturedAt: time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC),
		},
		StartPhoto: testPhoto,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ---- GET /km-log/today -----------------------------------------------------

func TestGetTodayLog_200_Pending(t *testing.T) {
	svc := &mockJourneyServicer{
		todayStatus: func(_ context.Context, driverID uuid.UUID) (domain.JourneyLog, error) {
			return domain.PendingLog(driverID, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/km-log/today", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.JourneyLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, testDriverID, resp.DriverID)
	assert.Nil(t, resp.StartFix)
}

func TestGetTodayLog_200_InProgress(t *testing.T) {
	svc := &mockJourneyServicer{
		todayStatus: func(_ context.Context, driverID uuid.UUID) (domain.JourneyLog, error) {
			return inProgressLog(driverID), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/km-log/today", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.JourneyLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StatusInProgress, resp.Status)
	require.NotNil(t, resp.StartFix)
	assert.InDelta(t, 28.6139, resp.StartFix.Latitude, 1e-9)
}

func TestGetTodayLog_401_NoIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/km-log/today", nil)
	rec := httptest.NewRecorder()

	newUnauthenticatedHandler(&mockJourneyServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Error.Code)
}

// ---- POST /km-log/start ----------------------------------------------------

func TestStartJourney_201(t *testing.T) {
	svc := &mockJourneyServicer{
		startJourney: func(_ context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string, remarks string) (domain.JourneyLog, error) {
			log := inProgressLog(driverID)
			log.StartFix = &fix
			log.StartPhoto = photoRef
			log.Remarks = remarks
			return log, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":    28.6139,
		"longitude":   77.2090,
		"accuracy_m":  8.5,
		"start_photo": testPhoto,
		"remarks":     "morning shift",
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.JourneyLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StatusInProgress, resp.Status)
	assert.Equal(t, "morning shift", resp.Remarks)
	require.NotNil(t, resp.StartFix)
	assert.InDelta(t, 77.2090, resp.StartFix.Longitude, 1e-9)
}

func TestStartJourney_ZeroCoordinatesAreValid(t *testing.T) {
	var seen domain.GeoFix
	svc := &mockJourneyServicer{
		startJourney: func(_ context.Context, driverID uuid.UUID, fix domain.GeoFix, _ string, _ string) (domain.JourneyLog, error) {
			seen = fix
			return inProgressLog(driverID), nil
		},
	}

	// Null Island is a real position; 0 must not be mistaken for absent.
	body := jsonBody(t, map[string]any{
		"latitude":    0.0,
		"longitude":   0.0,
		"start_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Zero(t, seen.Latitude)
	assert.Zero(t, seen.Longitude)
}

func TestStartJourney_422_MissingCoordinates(t *testing.T) {
	svc := &mockJourneyServicer{}

	body := jsonBody(t, map[string]any{
		"start_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
}

func TestStartJourney_422_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/km-log/start", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockJourneyServicer{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStartJourney_422_ServiceValidation(t *testing.T) {
	svc := &mockJourneyServicer{
		startJourney: func(_ context.Context, _ uuid.UUID, _ domain.GeoFix, _ string, _ string) (domain.JourneyLog, error) {
			return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: %w: photo is required", domain.ErrValidation)
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":  28.6139,
		"longitude": 77.2090,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	// The service prefix is stripped; the human-readable tail remains.
	assert.Equal(t, "validation error: photo is required", resp.Error.Message)
}

func TestStartJourney_409_AlreadyStarted(t *testing.T) {
	svc := &mockJourneyServicer{
		startJourney: func(_ context.Context, _ uuid.UUID, _ domain.GeoFix, _ string, _ string) (domain.JourneyLog, error) {
			return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: journey already recorded for this day: %w", domain.ErrConflict)
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":    28.6139,
		"longitude":   77.2090,
		"start_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Error.Code)
}

func TestStartJourney_404_UnknownDriver(t *testing.T) {
	svc := &mockJourneyServicer{
		startJourney: func(_ context.Context, _ uuid.UUID, _ domain.GeoFix, _ string, _ string) (domain.JourneyLog, error) {
			return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: %w", domain.ErrNotFound)
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":    28.6139,
		"longitude":   77.2090,
		"start_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/start", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

// ---- POST /km-log/end ------------------------------------------------------

func TestEndJourney_200_WithDistance(t *testing.T) {
	svc := &mockJourneyServicer{
		endJourney: func(_ context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string) (domain.JourneyLog, error) {
			log := inProgressLog(driverID)
			log.Status = domain.StatusCompleted
			log.EndFix = &fix
			log.EndPhoto = photoRef
			km := 14.44
			log.TotalKm = &km
			return log, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":  28.7041,
		"longitude": 77.1025,
		"end_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/end", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.JourneyLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	require.NotNil(t, resp.TotalKm)
	assert.InDelta(t, 14.44, *resp.TotalKm, 1e-9)
}

func TestEndJourney_409_NeverStarted(t *testing.T) {
	svc := &mockJourneyServicer{
		endJourney: func(_ context.Context, _ uuid.UUID, _ domain.GeoFix, _ string) (domain.JourneyLog, error) {
			return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: no journey started today: %w", domain.ErrConflict)
		},
	}

	body := jsonBody(t, map[string]any{
		"latitude":  28.7041,
		"longitude": 77.1025,
		"end_photo": testPhoto,
	})

	req := httptest.NewRequest(http.MethodPost, "/km-log/end", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "conflict", resp.Error.Code)
	assert.Equal(t, "no journey started today: conflict", resp.Error.Message)
}
