package domain

import "time"

// Project lifecycle states.
const (
	ProjectPlanning   = "PLANNING"
	ProjectInProgress = "IN_PROGRESS"
	ProjectOnHold     = "ON_HOLD"
	ProjectCompleted  = "COMPLETED"
	ProjectCancelled  = "CANCELLED"
)

// Project priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type Project struct {
	ID           string
	Name         string
	Description  string
	Status       string
	Priority     string
	DueDate      *time.Time
	CreatedByID  string
	AssignedToID *string // nil when unassigned
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
