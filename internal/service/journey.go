// Package service contains the business logic for the KM Tracker API.
// Services validate inputs, enforce the journey state machine, and orchestrate
// repo calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/km-tracker/internal/domain"
	"github.com/fleetops/km-tracker/internal/photo"
	"github.com/fleetops/km-tracker/internal/repo"
	"github.com/fleetops/km-tracker/internal/spatial"
)

// JourneyService implements the daily journey state machine:
// PENDING (no row) → IN_PROGRESS → COMPLETED, one log per driver per day.
type JourneyService struct {
	logs          repo.JourneyLogRepo
	drivers       repo.DriverRepo
	maxPhotoBytes int64
	now           func() time.Time
}

// NewJourneyService constructs a JourneyService backed by the provided repos.
// maxPhotoBytes <= 0 falls back to photo.DefaultMaxBytes.
func NewJourneyService(logs repo.JourneyLogRepo, drivers repo.DriverRepo, maxPhotoBytes int64) *JourneyService {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = photo.DefaultMaxBytes
	}
	return &JourneyService{
		logs:          logs,
		drivers:       drivers,
		maxPhotoBytes: maxPhotoBytes,
		now:           time.Now,
	}
}

// StartJourney records the start of a driver's workday: the validated start
// fix plus proof photo, advancing today's log to IN_PROGRESS.
//
// Returns domain.ErrNotFound if the driver record is missing (a provisioning
// gap), domain.ErrValidation for a bad fix or photo, and domain.ErrConflict
// if a journey was already started or completed today — including the losing
// side of a double-submit race, which the storage uniqueness constraint
// resolves to exactly one winner.
func (s *JourneyService) StartJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string, remarks string) (domain.JourneyLog, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: %w", err)
	}

	if err := s.validateCapture(&fix, photoRef); err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: %w", err)
	}

	log := domain.JourneyLog{
		DriverID:      driver.ID,
		LogDate:       dateOnly(s.now()),
		VehicleNumber: driver.VehicleNumber,
		StartFix:      &fix,
		StartPhoto:    photoRef,
		Remarks:       remarks,
	}

	created, err := s.logs.Start(ctx, log)
	if err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.StartJourney: %w", err)
	}
	return created, nil
}

// EndJourney records the end of the workday: the validated end fix plus proof
// photo. It computes the great-circle distance between the stored start fix
// and the end fix, persists it, and advances the log to COMPLETED.
//
// Returns domain.ErrConflict when there is no IN_PROGRESS log for today
// (nothing to end, or already completed), domain.ErrValidation when the end
// fix predates the start fix or the photo is missing/invalid.
func (s *JourneyService) EndJourney(ctx context.Context, driverID uuid.UUID, fix domain.GeoFix, photoRef string) (domain.JourneyLog, error) {
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: %w", err)
	}

	if err := s.validateCapture(&fix, photoRef); err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: %w", err)
	}

	today := dateOnly(s.now())
	current, err := s.logs.GetForDate(ctx, driverID, today)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: no journey started today: %w", domain.ErrConflict)
		}
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: %w", err)
	}
	if current.Status != domain.StatusInProgress || current.StartFix == nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: journey is %s, not IN_PROGRESS: %w", current.Status, domain.ErrConflict)
	}
	if fix.CapturedAt.Before(current.StartFix.CapturedAt) {
		return domain.JourneyLog{}, fmt.Errorf("%w: end time cannot be before start time", domain.ErrValidation)
	}

	totalKm := spatial.DistanceKm(*current.StartFix, fix)

	// The repo guards the UPDATE on status = IN_PROGRESS, so a concurrent
	// completion between the read above and this write still yields exactly
	// one COMPLETED row; the loser surfaces as ErrConflict.
	completed, err := s.logs.Complete(ctx, driverID, today, fix, photoRef, totalKm)
	if err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.EndJourney: %w", err)
	}
	return completed, nil
}

// TodayStatus returns the driver's journey log for today. When no row exists
// the day is still PENDING, represented by a synthesized log — reads never
// insert.
func (s *JourneyService) TodayStatus(ctx context.Context, driverID uuid.UUID) (domain.JourneyLog, error) {
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.TodayStatus: %w", err)
	}

	today := dateOnly(s.now())
	log, err := s.logs.GetForDate(ctx, driverID, today)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PendingLog(driverID, today), nil
		}
		return domain.JourneyLog{}, fmt.Errorf("service.JourneyService.TodayStatus: %w", err)
	}
	return log, nil
}

// validateCapture applies the server-side checks on an incoming fix and photo.
// The capture layer on the device already enforced freshness; here only range
// and photo integrity can still be wrong. A zero CapturedAt (client omitted
// the device timestamp) is stamped with the server clock, matching how the
// transitions were originally recorded.
func (s *JourneyService) validateCapture(fix *domain.GeoFix, photoRef string) error {
	if err := fix.Validate(); err != nil {
		return err
	}
	// Both sentinels are wrapped so handlers can map the failure to 422 while
	// still telling a missing photo apart from an oversized one.
	if err := photo.ValidateEncoded(photoRef, s.maxPhotoBytes); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if fix.CapturedAt.IsZero() {
		fix.CapturedAt = s.now()
	}
	return nil
}

// dateOnly truncates a timestamp to its calendar date at midnight UTC, the
// canonical representation of log_date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
