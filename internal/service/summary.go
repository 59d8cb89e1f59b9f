package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/km-tracker/internal/domain"
	"github.com/fleetops/km-tracker/internal/repo"
)

// SummaryService builds read-only per-driver/day rollups for supervisory
// views. Every call re-reads current state; nothing is cached, and nothing
// here ever mutates a journey log.
type SummaryService struct {
	logs        repo.JourneyLogRepo
	drivers     repo.DriverRepo
	assignments repo.AssignmentRepo
}

// NewSummaryService constructs a SummaryService backed by the provided repos.
func NewSummaryService(logs repo.JourneyLogRepo, drivers repo.DriverRepo, assignments repo.AssignmentRepo) *SummaryService {
	return &SummaryService{logs: logs, drivers: drivers, assignments: assignments}
}

// DriverDay returns one driver's summary for a date.
// Returns domain.ErrNotFound if the driver record does not exist.
func (s *SummaryService) DriverDay(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DriverDaySummary, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return domain.DriverDaySummary{}, fmt.Errorf("service.SummaryService.DriverDay: %w", err)
	}

	summary := domain.DriverDaySummary{
		DriverID:      driver.ID,
		DriverName:    driver.Name,
		DriverPhone:   driver.Phone,
		DriverEmail:   driver.Email,
		VehicleNumber: driver.VehicleNumber,
		VehicleType:   driver.VehicleType,
		KmStatus:      domain.KmStatusNotStarted,
		Date:          date.Format("2006-01-02"),
		IsActive:      driver.IsActive,
	}

	log, err := s.logs.GetForDate(ctx, driverID, date)
	switch {
	case err == nil:
		summary.KmStatus = string(log.Status)
		if log.TotalKm != nil {
			summary.TotalKm = *log.TotalKm
		}
	case errors.Is(err, domain.ErrNotFound):
		// No log row: the day never started. KmStatus stays NOT_STARTED.
	default:
		return domain.DriverDaySummary{}, fmt.Errorf("service.SummaryService.DriverDay: %w", err)
	}

	count, err := s.assignments.CountForDate(ctx, driverID, date)
	if err != nil {
		return domain.DriverDaySummary{}, fmt.Errorf("service.SummaryService.DriverDay: %w", err)
	}
	summary.AssignmentsCount = count

	return summary, nil
}

// AllDrivers returns summaries for every driver with activity on the date —
// a journey log or an active assignment — ordered by driver id. Drivers with
// no activity that day are omitted rather than listed as NOT_STARTED, keeping
// the fleet view focused on the day's actual operations.
func (s *SummaryService) AllDrivers(ctx context.Context, date time.Time, page domain.PaginationParams) ([]domain.DriverDaySummary, error) {
	withLogs, err := s.logs.DriverIDsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("service.SummaryService.AllDrivers: %w", err)
	}
	withAssignments, err := s.assignments.DriverIDsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("service.SummaryService.AllDrivers: %w", err)
	}

	ids := unionSorted(withLogs, withAssignments)

	// Paginate the id list before hydrating, so a large fleet costs one page
	// of per-driver reads, not the whole roster.
	lo := page.Offset()
	if lo > len(ids) {
		lo = len(ids)
	}
	hi := lo + page.Limit
	if hi > len(ids) {
		hi = len(ids)
	}

	summaries := make([]domain.DriverDaySummary, 0, hi-lo)
	for _, id := range ids[lo:hi] {
		summary, err := s.DriverDay(ctx, id, date)
		if err != nil {
			// A log row pointing at a deleted driver is a data gap, not a
			// reason to fail the whole fleet view.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service.SummaryService.AllDrivers: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// unionSorted merges two id slices into a sorted, de-duplicated result.
func unionSorted(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(a)+len(b))
	var out []uuid.UUID
	for _, ids := range [][]uuid.UUID{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(x, y uuid.UUID) int {
		return slices.Compare(x[:], y[:])
	})
	return out
}
