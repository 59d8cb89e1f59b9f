// Package geofix acquires and validates a single GPS location reading.
//
// GPS receivers on some devices answer a location request near-instantly with
// a cached last-known fix. The capture policy here rejects fixes by age, not
// merely by presence, which forces a live re-read and prevents a stale
// location from being reused to fake a journey start or end point.
//
// The policy is an explicit two-attempt sequence: one high-accuracy attempt
// with a tight staleness threshold, then — on timeout only — one low-accuracy
// attempt with a looser threshold. No further retries.
package geofix

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetops/km-tracker/internal/domain"
)

// Purpose identifies which end of the journey a capture is for.
type Purpose string

const (
	PurposeStart Purpose = "start"
	PurposeEnd   Purpose = "end"
)

// Kind classifies a capture failure so callers can choose the right guidance
// for the driver (enable location, move to open sky, retry).
type Kind string

const (
	KindUnsupported         Kind = "unsupported"          // no location facility available at all
	KindPermissionDenied    Kind = "permission_denied"    // facility refused access
	KindPositionUnavailable Kind = "position_unavailable" // facility could not produce a position
	KindTimeout             Kind = "timeout"              // both attempts ran out of time
	KindStale               Kind = "stale"                // fix older than the tier's staleness threshold
	KindOutOfRange          Kind = "out_of_range"         // coordinates outside valid lat/lon ranges
)

// Sentinel errors a Locator implementation returns to report the cause of a
// failed read. Anything else (including context.DeadlineExceeded) is treated
// as a timeout of the bounded wait.
var (
	ErrUnsupported         = errors.New("location facility unsupported")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
)

// ErrCaptureInFlight is returned when a second capture is requested for a
// purpose while one is still outstanding. Capture is not reentrant per
// purpose.
var ErrCaptureInFlight = errors.New("capture already in flight for this purpose")

// CaptureError is the tagged failure result of a capture attempt.
type CaptureError struct {
	Kind    Kind
	Purpose Purpose
	Err     error // underlying cause, may be nil for policy rejections like Stale
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geofix: capture %s: %s: %v", e.Purpose, e.Kind, e.Err)
	}
	return fmt.Sprintf("geofix: capture %s: %s", e.Purpose, e.Kind)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error returned by Capture.
// Returns "" if err is not a CaptureError.
func KindOf(err error) Kind {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Request describes one bounded read from the location facility.
type Request struct {
	// HighAccuracy asks the facility for its best-quality fix (e.g. full GPS
	// rather than network triangulation). Costs more time and power.
	HighAccuracy bool
	// Timeout bounds how long the facility may take to answer.
	Timeout time.Duration
}

// Locator is the device location facility. Implementations block for up to
// Request.Timeout and return either a fix or one of this package's sentinel
// errors describing the cause.
type Locator interface {
	Locate(ctx context.Context, req Request) (domain.GeoFix, error)
}

// Config holds the tunable parameters of the two-tier capture policy.
// The staleness thresholds were carried over from the observed capture flow
// rather than derived from an accuracy model, so they stay configurable.
type Config struct {
	PrimaryTimeout  time.Duration // bounded wait for the high-accuracy attempt
	FallbackTimeout time.Duration // longer wait for the low-accuracy retry
	PrimaryMaxAge   time.Duration // strict staleness threshold, primary tier
	FallbackMaxAge  time.Duration // looser staleness threshold, fallback tier
}

// DefaultConfig returns the production defaults: 10s/30s waits, 1s/5s
// staleness thresholds.
func DefaultConfig() Config {
	return Config{
		PrimaryTimeout:  10 * time.Second,
		FallbackTimeout: 30 * time.Second,
		PrimaryMaxAge:   time.Second,
		FallbackMaxAge:  5 * time.Second,
	}
}

// Capturer runs the two-attempt capture policy against a Locator.
type Capturer struct {
	loc Locator
	cfg Config
	now func() time.Time // injectable clock for tests

	mu       sync.Mutex
	inFlight map[Purpose]bool
}

// NewCapturer constructs a Capturer. A nil Locator is allowed and makes every
// capture fail with KindUnsupported, mirroring a device without a location
// facility. Zero-valued Config fields fall back to DefaultConfig values.
func NewCapturer(loc Locator, cfg Config) *Capturer {
	def := DefaultConfig()
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = def.PrimaryTimeout
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = def.FallbackTimeout
	}
	if cfg.PrimaryMaxAge <= 0 {
		cfg.PrimaryMaxAge = def.PrimaryMaxAge
	}
	if cfg.FallbackMaxAge <= 0 {
		cfg.FallbackMaxAge = def.FallbackMaxAge
	}
	return &Capturer{
		loc:      loc,
		cfg:      cfg,
		now:      time.Now,
		inFlight: make(map[Purpose]bool),
	}
}

// Capture acquires one validated fix for the given purpose.
//
// Attempt 1 requests a high-accuracy fix within PrimaryTimeout and rejects it
// as Stale if older than PrimaryMaxAge — a near-instant stale answer is a
// cached value, and falling back would only fetch another one, so stale
// rejections do not trigger the fallback. Only a primary-tier timeout does:
// attempt 2 requests a low-accuracy fix within FallbackTimeout, judged
// against the looser FallbackMaxAge.
//
// Accepted fixes are range-checked; coordinates outside [-90,90]/[-180,180]
// fail with KindOutOfRange regardless of tier.
func (c *Capturer) Capture(ctx context.Context, purpose Purpose) (domain.GeoFix, error) {
	if c.loc == nil {
		return domain.GeoFix{}, &CaptureError{Kind: KindUnsupported, Purpose: purpose, Err: ErrUnsupported}
	}

	if err := c.acquire(purpose); err != nil {
		return domain.GeoFix{}, err
	}
	defer c.release(purpose)

	fix, err := c.attempt(ctx, purpose, Request{HighAccuracy: true, Timeout: c.cfg.PrimaryTimeout}, c.cfg.PrimaryMaxAge)
	if err == nil {
		return fix, nil
	}
	if KindOf(err) != KindTimeout {
		return domain.GeoFix{}, err
	}

	// Primary tier timed out: one low-accuracy retry with a longer wait.
	return c.attempt(ctx, purpose, Request{HighAccuracy: false, Timeout: c.cfg.FallbackTimeout}, c.cfg.FallbackMaxAge)
}

// attempt performs a single bounded read and applies the staleness and range
// checks for its tier.
func (c *Capturer) attempt(ctx context.Context, purpose Purpose, req Request, maxAge time.Duration) (domain.GeoFix, error) {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	fix, err := c.loc.Locate(ctx, req)
	if err != nil {
		return domain.GeoFix{}, &CaptureError{Kind: classify(err), Purpose: purpose, Err: err}
	}

	if age := c.now().Sub(fix.CapturedAt); age > maxAge {
		return domain.GeoFix{}, &CaptureError{
			Kind:    KindStale,
			Purpose: purpose,
			Err:     fmt.Errorf("fix is %v old, threshold %v", age.Truncate(time.Millisecond), maxAge),
		}
	}

	if err := fix.Validate(); err != nil {
		return domain.GeoFix{}, &CaptureError{Kind: KindOutOfRange, Purpose: purpose, Err: err}
	}

	return fix, nil
}

// classify maps a Locator failure to its capture kind. Unknown errors and
// context deadline expiry count as timeouts of the bounded wait.
func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrPositionUnavailable):
		return KindPositionUnavailable
	default:
		return KindTimeout
	}
}

func (c *Capturer) acquire(purpose Purpose) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[purpose] {
		return fmt.Errorf("geofix: capture %s: %w", purpose, ErrCaptureInFlight)
	}
	c.inFlight[purpose] = true
	return nil
}

func (c *Capturer) release(purpose Purpose) {
	c.mu.Lock()
	c.inFlight[purpose] = false
	c.mu.Unlock()
}
