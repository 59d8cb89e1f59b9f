// Package main is a field capture agent for testing the KM Tracker API from
// the command line. It runs the same two-tier GPS capture and photo encoding
// a driver's device performs, then posts the journey start or end to the API.
//
// Usage:
//
//	fieldagent -action start -lat 28.6139 -lon 77.2090 -photo proof.jpg -token $JWT
//	fieldagent -action end   -lat 28.7041 -lon 77.1025 -photo proof.jpg -token $JWT
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fleetops/km-tracker/internal/domain"
	"github.com/fleetops/km-tracker/internal/geofix"
	"github.com/fleetops/km-tracker/internal/photo"
)

// staticLocator is a Locator fed from command-line coordinates. It reports
// the fix as captured "now", like a live GPS read.
type staticLocator struct {
	lat, lon float64
	delay    time.Duration // simulated acquisition time
}

func (l *staticLocator) Locate(ctx context.Context, _ geofix.Request) (domain.GeoFix, error) {
	select {
	case <-time.After(l.delay):
	case <-ctx.Done():
		return domain.GeoFix{}, geofix.ErrTimeout
	}
	acc := 10.0
	return domain.GeoFix{
		Latitude:   l.lat,
		Longitude:  l.lon,
		AccuracyM:  &acc,
		CapturedAt: time.Now(),
	}, nil
}

// fileSource reads the proof photo from a file on disk.
type fileSource struct {
	path string
}

func (s *fileSource) Read(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.path)
}

func main() {
	var (
		apiURL    = flag.String("api", "http://localhost:8080", "base URL of the KM Tracker API")
		token     = flag.String("token", os.Getenv("KM_TRACKER_TOKEN"), "bearer token (defaults to KM_TRACKER_TOKEN)")
		action    = flag.String("action", "start", "journey transition to record: start or end")
		lat       = flag.Float64("lat", 28.6139, "latitude the simulated GPS reports")
		lon       = flag.Float64("lon", 77.2090, "longitude the simulated GPS reports")
		photoPath = flag.String("photo", "", "path to the proof photo (required)")
		gpsDelay  = flag.Duration("gps-delay", 200*time.Millisecond, "simulated GPS acquisition time")
		remarks   = flag.String("remarks", "", "optional remarks, start only")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var purpose geofix.Purpose
	switch *action {
	case "start":
		purpose = geofix.PurposeStart
	case "end":
		purpose = geofix.PurposeEnd
	default:
		slog.Error("unknown action", "action", *action)
		os.Exit(2)
	}
	if *photoPath == "" {
		slog.Error("-photo is required")
		os.Exit(2)
	}

	ctx := context.Background()

	// Capture the fix through the real two-tier policy, so the agent fails
	// the same way a device would on a slow or stale GPS.
	capturer := geofix.NewCapturer(&staticLocator{lat: *lat, lon: *lon, delay: *gpsDelay}, geofix.DefaultConfig())
	fix, err := capturer.Capture(ctx, purpose)
	if err != nil {
		slog.Error("GPS capture failed", "kind", geofix.KindOf(err), "error", err)
		os.Exit(1)
	}
	slog.Info("fix acquired", "lat", fix.Latitude, "lon", fix.Longitude, "captured_at", fix.CapturedAt)

	ref, err := photo.NewCapturer(&fileSource{path: *photoPath}, photo.DefaultMaxBytes).Capture(ctx)
	if err != nil {
		slog.Error("photo capture failed", "error", err)
		os.Exit(1)
	}

	body := map[string]any{
		"latitude":    fix.Latitude,
		"longitude":   fix.Longitude,
		"accuracy_m":  fix.AccuracyM,
		"captured_at": fix.CapturedAt,
	}
	var path string
	if purpose == geofix.PurposeStart {
		path = "/km-log/start"
		body["start_photo"] = string(ref)
		if *remarks != "" {
			body["remarks"] = *remarks
		}
	} else {
		path = "/km-log/end"
		body["end_photo"] = string(ref)
	}

	status, resp, err := post(ctx, *apiURL+path, *token, body)
	if err != nil {
		slog.Error("request failed", "error", err)
		os.Exit(1)
	}
	if status >= 300 {
		slog.Error("API rejected the transition", "status", status, "body", string(resp))
		os.Exit(1)
	}

	slog.Info("journey transition recorded", "action", *action, "status", status)
	fmt.Println(string(resp))
}

func post(ctx context.Context, url, token string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}
