// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs and verifies driver bearer tokens. Required.
	JWTSecret string

	// MaxPhotoBytes is the raw-image ceiling for proof photos.
	// Defaults to 3 MiB. Set MAX_PHOTO_BYTES to override.
	MaxPhotoBytes int64

	// GPSPrimaryMaxAge and GPSFallbackMaxAge are the staleness thresholds of
	// the two capture tiers. They were observed from the capture flow rather
	// than derived from an accuracy model, so they are configuration, not
	// invariants. Set GPS_PRIMARY_MAX_AGE_MS / GPS_FALLBACK_MAX_AGE_MS.
	GPSPrimaryMaxAge  time.Duration
	GPSFallbackMaxAge time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxPhotoBytes:     getEnvInt64("MAX_PHOTO_BYTES", 3<<20),
		GPSPrimaryMaxAge:  time.Duration(getEnvInt64("GPS_PRIMARY_MAX_AGE_MS", 1000)) * time.Millisecond,
		GPSFallbackMaxAge: time.Duration(getEnvInt64("GPS_FALLBACK_MAX_AGE_MS", 5000)) * time.Millisecond,
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt64 parses an integer environment variable, falling back when the
// variable is unset, empty, or not a positive integer.
func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
