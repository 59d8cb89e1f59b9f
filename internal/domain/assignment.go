package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is a unit of work given to a driver for a specific date.
// Assignments are owned by the campaign module; the journey subsystem only
// reads them to count a driver's workload in daily summaries.
type Assignment struct {
	ID              uuid.UUID
	DriverID        uuid.UUID
	CampaignName    string
	TaskDescription string
	AssignmentDate  time.Time // date only
	Status          string
	IsActive        bool
	CreatedAt       time.Time
}
