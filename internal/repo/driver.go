package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/km-tracker/internal/domain"
)

// DriverRepo defines the persistence operations the journey subsystem needs
// for drivers. Driver CRUD proper belongs to the surrounding application;
// Create exists so tests and provisioning scripts can seed records.
type DriverRepo interface {
	// Create inserts a new driver and returns the persisted record.
	Create(ctx context.Context, driver domain.Driver) (domain.Driver, error)

	// GetByID retrieves a single driver by primary key.
	// Returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)
}

// pgDriverRepo is the Postgres implementation of DriverRepo.
type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

const driverColumns = `id, name, phone, email, vehicle_number, vehicle_type, is_active, created_at, updated_at`

// Create inserts a new driver row and returns the full persisted record.
func (r *pgDriverRepo) Create(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	q := `
		INSERT INTO drivers (name, phone, email, vehicle_number, vehicle_type, is_active)
		VALUES (@name, @phone, @email, @vehicle_number, @vehicle_type, @is_active)
		RETURNING ` + driverColumns

	args := pgx.NamedArgs{
		"name":           driver.Name,
		"phone":          driver.Phone,
		"email":          driver.Email,
		"vehicle_number": driver.VehicleNumber,
		"vehicle_type":   driver.VehicleType,
		"is_active":      driver.IsActive,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanDriver(row)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a driver by primary key.
func (r *pgDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	q := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanDriver(row)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return result, nil
}

// scanDriver maps a single database row into a domain.Driver.
func scanDriver(s scanner) (domain.Driver, error) {
	var (
		d  domain.Driver
		id pgtype.UUID
	)

	err := s.Scan(&id, &d.Name, &d.Phone, &d.Email, &d.VehicleNumber, &d.VehicleType, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, domain.ErrNotFound
		}
		return domain.Driver{}, err
	}

	d.ID = uuid.UUID(id.Bytes)
	return d, nil
}
