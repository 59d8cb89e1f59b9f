package domain

import "github.com/google/uuid"

// KmStatusNotStarted is the summary status shown when a driver has no journey
// log row for the day. It is distinct from the JourneyStatus enum because a
// summary describes absence as well as state.
const KmStatusNotStarted = "NOT_STARTED"

// DriverDaySummary is the read-only rollup of one driver's day: who they are,
// what vehicle they run, how far they drove, and how much work they were
// assigned. It is a projection — building one never mutates a JourneyLog.
type DriverDaySummary struct {
	DriverID      uuid.UUID `json:"driver_id"`
	DriverName    string    `json:"driver_name"`
	DriverPhone   string    `json:"driver_phone,omitempty"`
	DriverEmail   string    `json:"driver_email,omitempty"`
	VehicleNumber string    `json:"vehicle_number,omitempty"`
	VehicleType   string    `json:"vehicle_type,omitempty"`

	// KmStatus is the journey status for the date, or NOT_STARTED when no
	// log row exists.
	KmStatus string  `json:"km_status"`
	TotalKm  float64 `json:"total_km"` // 0 until the journey completes

	AssignmentsCount int    `json:"assignments_count"`
	Date             string `json:"date"` // "2006-01-02"
	IsActive         bool   `json:"is_active"`
}
