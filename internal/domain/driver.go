package domain

import (
	"time"

	"github.com/google/uuid"
)

// Driver is the minimal driver record the journey subsystem needs.
// Driver provisioning and the full HR profile live in the surrounding
// application; this type carries only identity, contact fields surfaced in
// summaries, and the currently assigned vehicle.
type Driver struct {
	ID            uuid.UUID
	Name          string
	Phone         string
	Email         string
	VehicleNumber string // registration plate of the assigned vehicle, empty when none
	VehicleType   string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
