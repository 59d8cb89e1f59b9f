// Package repo contains all database access logic for the KM Tracker API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/km-tracker/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// JourneyLogRepo defines the persistence operations for daily journey logs.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type JourneyLogRepo interface {
	// GetForDate retrieves the journey log for one driver and calendar date.
	// Returns domain.ErrNotFound when the driver has no row for that date
	// (i.e. the day is still conceptually PENDING).
	GetForDate(ctx context.Context, driverID uuid.UUID, logDate time.Time) (domain.JourneyLog, error)

	// Start inserts the IN_PROGRESS row for (driver, date) with the start fix
	// and photo. The UNIQUE (driver_id, log_date) constraint makes this the
	// atomic "one winner" step: a second insert for the same day returns
	// domain.ErrConflict no matter how the requests interleave.
	Start(ctx context.Context, log domain.JourneyLog) (domain.JourneyLog, error)

	// Complete advances the (driver, date) row from IN_PROGRESS to COMPLETED,
	// persisting the end fix, end photo, and computed distance. The UPDATE is
	// guarded on status = IN_PROGRESS; if no such row exists (never started,
	// or a concurrent request completed it first) it returns domain.ErrConflict.
	Complete(ctx context.Context, driverID uuid.UUID, logDate time.Time, endFix domain.GeoFix, endPhoto string, totalKm float64) (domain.JourneyLog, error)

	// DriverIDsForDate returns the distinct drivers having a journey log on
	// the given date, ordered by driver id.
	DriverIDsForDate(ctx context.Context, logDate time.Time) ([]uuid.UUID, error)
}

// pgJourneyLogRepo is the Postgres implementation of JourneyLogRepo.
type pgJourneyLogRepo struct {
	db db
}

// NewJourneyLogRepo constructs a JourneyLogRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewJourneyLogRepo(db db) JourneyLogRepo {
	return &pgJourneyLogRepo{db: db}
}

const journeyLogColumns = `
	id, driver_id, log_date, status, vehicle_number,
	start_latitude, start_longitude, start_accuracy_m, start_captured_at, start_photo,
	end_latitude, end_longitude, end_accuracy_m, end_captured_at, end_photo,
	total_km::double precision, remarks, created_at, updated_at`

// GetForDate retrieves one driver's log for a calendar date.
func (r *pgJourneyLogRepo) GetForDate(ctx context.Context, driverID uuid.UUID, logDate time.Time) (domain.JourneyLog, error) {
	q := `
		SELECT ` + journeyLogColumns + `
		FROM daily_km_logs
		WHERE driver_id = @driver_id AND log_date = @log_date`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID, "log_date": logDate})
	result, err := scanJourneyLog(row)
	if err != nil {
		return domain.JourneyLog{}, fmt.Errorf("repo.JourneyLogRepo.GetForDate: %w", err)
	}
	return result, nil
}

// Start inserts the journey's IN_PROGRESS row.
func (r *pgJourneyLogRepo) Start(ctx context.Context, log domain.JourneyLog) (domain.JourneyLog, error) {
	q := `
		INSERT INTO daily_km_logs (
			driver_id, log_date, status, vehicle_number,
			start_latitude, start_longitude, start_accuracy_m, start_captured_at, start_photo,
			remarks
		)
		VALUES (
			@driver_id, @log_date, @status, @vehicle_number,
			@start_latitude, @start_longitude, @start_accuracy_m, @start_captured_at, @start_photo,
			@remarks
		)
		RETURNING ` + journeyLogColumns

	args := pgx.NamedArgs{
		"driver_id":         log.DriverID,
		"log_date":          log.LogDate,
		"status":            string(domain.StatusInProgress),
		"vehicle_number":    log.VehicleNumber,
		"start_latitude":    log.StartFix.Latitude,
		"start_longitude":   log.StartFix.Longitude,
		"start_accuracy_m":  log.StartFix.AccuracyM, // nil becomes NULL
		"start_captured_at": log.StartFix.CapturedAt,
		"start_photo":       log.StartPhoto,
		"remarks":           log.Remarks,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanJourneyLog(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.JourneyLog{}, fmt.Errorf("repo.JourneyLogRepo.Start: journey already recorded for this day: %w", domain.ErrConflict)
		}
		return domain.JourneyLog{}, fmt.Errorf("repo.JourneyLogRepo.Start: %w", err)
	}
	return result, nil
}

// Complete performs the guarded IN_PROGRESS → COMPLETED transition.
func (r *pgJourneyLogRepo) Complete(ctx context.Context, driverID uuid.UUID, logDate time.Time, endFix domain.GeoFix, endPhoto string, totalKm float64) (domain.JourneyLog, error) {
	q := `
		UPDATE daily_km_logs
		SET status          = @status,
		    end_latitude    = @end_latitude,
		    end_longitude   = @end_longitude,
		    end_accuracy_m  = @end_accuracy_m,
		    end_captured_at = @end_captured_at,
		    end_photo       = @end_photo,
		    total_km        = @total_km,
		    updated_at      = now()
		WHERE driver_id = @driver_id
		  AND log_date  = @log_date
		  AND status    = 'IN_PROGRESS'
		RETURNING ` + journeyLogColumns

	args := pgx.NamedArgs{
		"driver_id":       driverID,
		"log_date":        logDate,
		"status":          string(domain.StatusCompleted),
		"end_latitude":    endFix.Latitude,
		"end_longitude":   endFix.Longitude,
		"end_accuracy_m":  endFix.AccuracyM,
		"end_captured_at": endFix.CapturedAt,
		"end_photo":       endPhoto,
		"total_km":        totalKm,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanJourneyLog(row)
	if err != nil {
		// No IN_PROGRESS row to update: nothing to end, or already completed.
		if errors.Is(err, domain.ErrNotFound) {
			return domain.JourneyLog{}, fmt.Errorf("repo.JourneyLogRepo.Complete: no journey in progress for this day: %w", domain.ErrConflict)
		}
		return domain.JourneyLog{}, fmt.Errorf("repo.JourneyLogRepo.Complete: %w", err)
	}
	return result, nil
}

// DriverIDsForDate returns distinct drivers with a log row on logDate.
func (r *pgJourneyLogRepo) DriverIDsForDate(ctx context.Context, logDate time.Time) ([]uuid.UUID, error) {
	const q = `
		SELECT DISTINCT driver_id
		FROM daily_km_logs
		WHERE log_date = @log_date
		ORDER BY driver_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"log_date": logDate})
	if err != nil {
		return nil, fmt.Errorf("repo.JourneyLogRepo.DriverIDsForDate: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.JourneyLogRepo.DriverIDsForDate: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.JourneyLogRepo.DriverIDsForDate: rows: %w", err)
	}

	return ids, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanJourneyLog maps a single database row into a domain.JourneyLog.
// It assembles the nullable fix columns into *GeoFix values: a fix is present
// exactly when its captured_at column is non-NULL.
func scanJourneyLog(s scanner) (domain.JourneyLog, error) {
	var (
		l          domain.JourneyLog
		id         pgtype.UUID
		driverID   pgtype.UUID
		logDate    pgtype.Date
		status     string
		startLat   pgtype.Float8
		startLon   pgtype.Float8
		startAcc   pgtype.Float8
		startAt    pgtype.Timestamptz
		startPhoto pgtype.Text
		endLat     pgtype.Float8
		endLon     pgtype.Float8
		endAcc     pgtype.Float8
		endAt      pgtype.Timestamptz
		endPhoto   pgtype.Text
		totalKm    pgtype.Float8
	)

	err := s.Scan(
		&id, &driverID, &logDate, &status, &l.VehicleNumber,
		&startLat, &startLon, &startAcc, &startAt, &startPhoto,
		&endLat, &endLon, &endAcc, &endAt, &endPhoto,
		&totalKm, &l.Remarks, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JourneyLog{}, domain.ErrNotFound
		}
		return domain.JourneyLog{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	l.DriverID = uuid.UUID(driverID.Bytes)
	l.LogDate = logDate.Time
	l.Status = domain.JourneyStatus(status)
	l.StartPhoto = startPhoto.String
	l.EndPhoto = endPhoto.String

	if startAt.Valid {
		l.StartFix = assembleFix(startLat, startLon, startAcc, startAt)
	}
	if endAt.Valid {
		l.EndFix = assembleFix(endLat, endLon, endAcc, endAt)
	}
	if totalKm.Valid {
		km := totalKm.Float64
		l.TotalKm = &km
	}

	return l, nil
}

func assembleFix(lat, lon, acc pgtype.Float8, at pgtype.Timestamptz) *domain.GeoFix {
	fix := &domain.GeoFix{
		Latitude:   lat.Float64,
		Longitude:  lon.Float64,
		CapturedAt: at.Time,
	}
	if acc.Valid {
		a := acc.Float64
		fix.AccuracyM = &a
	}
	return fix
}
