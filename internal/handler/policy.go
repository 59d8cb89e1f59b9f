package handler

import (
	"net/http"

	"github.com/fleetops/km-tracker/internal/geofix"
)

// capturePolicyResponse is the body of GET /capture-policy. Durations travel
// as milliseconds, the unit device location APIs take.
type capturePolicyResponse struct {
	PrimaryTimeoutMs  int64 `json:"primary_timeout_ms"`
	FallbackTimeoutMs int64 `json:"fallback_timeout_ms"`
	PrimaryMaxAgeMs   int64 `json:"primary_max_age_ms"`
	FallbackMaxAgeMs  int64 `json:"fallback_max_age_ms"`
	MaxPhotoBytes     int64 `json:"max_photo_bytes"`
}

// NewCapturePolicy returns a handler serving the capture parameters the
// driver app should apply: the two-tier GPS timeouts and staleness
// thresholds, plus the proof photo size ceiling. Serving them from the API
// keeps deployed apps in step with server-side validation when the values
// are tuned.
func NewCapturePolicy(gps geofix.Config, maxPhotoBytes int64) http.HandlerFunc {
	resp := capturePolicyResponse{
		PrimaryTimeoutMs:  gps.PrimaryTimeout.Milliseconds(),
		FallbackTimeoutMs: gps.FallbackTimeout.Milliseconds(),
		PrimaryMaxAgeMs:   gps.PrimaryMaxAge.Milliseconds(),
		FallbackMaxAgeMs:  gps.FallbackMaxAge.Milliseconds(),
		MaxPhotoBytes:     maxPhotoBytes,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
