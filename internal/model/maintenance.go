package model

import "time"

// MaintenanceStatus is the lifecycle state of a maintenance request.
type MaintenanceStatus string

// Maintenance statuses.
const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

// Valid reports whether s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted:
		return true
	}
	return false
}

// Priority of a maintenance request.
type Priority string

// Priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// MaintenanceRequest is a repair ticket for items held by a unit. The
// quantity is reserved against the submitter's inventory at creation time
// but not deducted from it.
type MaintenanceRequest struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	SubmittedBy  string            `json:"submitted_by"`
	DisplayName  string            `json:"display_name"`
	ItemName     string            `json:"item_name"`
	Quantity     int               `json:"quantity"`
	Priority     Priority          `json:"priority"`
	Status       MaintenanceStatus `json:"status"`
	Description  string            `json:"description"`
	Notes        string            `json:"notes,omitempty"`
	ResolvedDate *time.Time        `json:"resolved_date,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
