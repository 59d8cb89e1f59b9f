// Package domain contains the core data types for the KM Tracker application.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JourneyStatus is the lifecycle state of a driver's daily journey log.
// It only ever advances forward: PENDING → IN_PROGRESS → COMPLETED.
type JourneyStatus string

const (
	// StatusPending means no journey has been started today.
	// A PENDING log is conceptual — no row exists until the first start.
	StatusPending JourneyStatus = "PENDING"
	// StatusInProgress means the driver has recorded a start fix and photo.
	StatusInProgress JourneyStatus = "IN_PROGRESS"
	// StatusCompleted is terminal: both fixes are recorded and total_km is set.
	StatusCompleted JourneyStatus = "COMPLETED"
)

// GeoFix is a single GPS location reading. It is a value object embedded in a
// JourneyLog, never persisted on its own.
type GeoFix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"` // horizontal accuracy in meters, when the device reports one
	CapturedAt time.Time `json:"captured_at"`
}

// Validate checks the coordinate ranges. Freshness is the capture layer's
// concern; by the time a fix reaches the domain only range can be wrong.
func (f GeoFix) Validate() error {
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("%w: invalid latitude %v: must be between -90 and 90", ErrValidation, f.Latitude)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("%w: invalid longitude %v: must be between -180 and 180", ErrValidation, f.Longitude)
	}
	return nil
}

// JourneyLog is one driver's journey record for a single calendar day.
// Exactly one row exists per (DriverID, LogDate); the pair is unique in the
// database. StartFix/StartPhoto are set once status reaches IN_PROGRESS,
// EndFix/EndPhoto/TotalKm once it reaches COMPLETED.
type JourneyLog struct {
	ID            uuid.UUID     `json:"id"`
	DriverID      uuid.UUID     `json:"driver_id"`
	LogDate       time.Time     `json:"log_date"` // date only; time component is always midnight UTC
	Status        JourneyStatus `json:"status"`
	VehicleNumber string        `json:"vehicle_number,omitempty"` // copied from the driver record at start time
	StartFix      *GeoFix       `json:"start_fix,omitempty"`
	StartPhoto    string        `json:"start_photo,omitempty"` // base64-encoded proof image, opaque to the server
	EndFix        *GeoFix       `json:"end_fix,omitempty"`
	EndPhoto      string        `json:"end_photo,omitempty"`
	TotalKm       *float64      `json:"total_km,omitempty"` // derived from the two fixes, never client-supplied
	Remarks       string        `json:"remarks,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PendingLog returns the synthesized representation of a day with no journey
// row yet. Reads must not insert, so "no record" is presented as a PENDING log
// with zero-value audit fields.
func PendingLog(driverID uuid.UUID, logDate time.Time) JourneyLog {
	return JourneyLog{
		DriverID: driverID,
		LogDate:  logDate,
		Status:   StatusPending,
	}
}
