package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/km-tracker/internal/domain"
)

// AssignmentRepo defines the read operations the summary aggregator needs over
// externally-owned assignment records, plus Create for seeding.
type AssignmentRepo interface {
	// Create inserts a new assignment and returns the persisted record.
	Create(ctx context.Context, a domain.Assignment) (domain.Assignment, error)

	// CountForDate returns the number of active assignments a driver has on
	// the given date.
	CountForDate(ctx context.Context, driverID uuid.UUID, date time.Time) (int, error)

	// DriverIDsForDate returns the distinct drivers having an active
	// assignment on the given date, ordered by driver id.
	DriverIDsForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error)
}

// pgAssignmentRepo is the Postgres implementation of AssignmentRepo.
type pgAssignmentRepo struct {
	db db
}

// NewAssignmentRepo constructs an AssignmentRepo backed by the provided db connection.
func NewAssignmentRepo(db db) AssignmentRepo {
	return &pgAssignmentRepo{db: db}
}

// Create inserts a new assignment row and returns the full persisted record.
func (r *pgAssignmentRepo) Create(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	const q = `
		INSERT INTO driver_assignments (driver_id, campaign_name, task_description, assignment_date, status, is_active)
		VALUES (@driver_id, @campaign_name, @task_description, @assignment_date, @status, @is_active)
		RETURNING id, driver_id, campaign_name, task_description, assignment_date, status, is_active, created_at`

	args := pgx.NamedArgs{
		"driver_id":        a.DriverID,
		"campaign_name":    a.CampaignName,
		"task_description": a.TaskDescription,
		"assignment_date":  a.AssignmentDate,
		"status":           a.Status,
		"is_active":        a.IsActive,
	}

	var (
		out     domain.Assignment
		id      pgtype.UUID
		driver  pgtype.UUID
		annDate pgtype.Date
	)
	err := r.db.QueryRow(ctx, q, args).Scan(
		&id, &driver, &out.CampaignName, &out.TaskDescription, &annDate, &out.Status, &out.IsActive, &out.CreatedAt,
	)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("repo.AssignmentRepo.Create: %w", err)
	}

	out.ID = uuid.UUID(id.Bytes)
	out.DriverID = uuid.UUID(driver.Bytes)
	out.AssignmentDate = annDate.Time
	return out, nil
}

// CountForDate counts a driver's active assignments on a date.
func (r *pgAssignmentRepo) CountForDate(ctx context.Context, driverID uuid.UUID, date time.Time) (int, error) {
	const q = `
		SELECT count(*)
		FROM driver_assignments
		WHERE driver_id = @driver_id
		  AND assignment_date = @assignment_date
		  AND is_active`

	var n int
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID, "assignment_date": date}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.AssignmentRepo.CountForDate: %w", err)
	}
	return n, nil
}

// DriverIDsForDate returns distinct drivers with an active assignment on date.
func (r *pgAssignmentRepo) DriverIDsForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	const q = `
		SELECT DISTINCT driver_id
		FROM driver_assignments
		WHERE assignment_date = @assignment_date
		  AND is_active
		ORDER BY driver_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"assignment_date": date})
	if err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.DriverIDsForDate: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.AssignmentRepo.DriverIDsForDate: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.DriverIDsForDate: rows: %w", err)
	}

	return ids, nil
}
