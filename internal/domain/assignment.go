package domain

import "time"

// AssignmentStatus enumerates ledger entry states.
type AssignmentStatus string

const (
	AssignmentStatusPendingConfirmation AssignmentStatus = "pending-confirmation"
	AssignmentStatusAssigned            AssignmentStatus = "assigned"
	AssignmentStatusInProgress          AssignmentStatus = "in-progress"
	AssignmentStatusOnHold              AssignmentStatus = "on_hold"
	AssignmentStatusCompleted           AssignmentStatus = "completed"
	AssignmentStatusCancelled           AssignmentStatus = "cancelled"
)

// Active reports whether the entry still binds the employee to the request.
// At most one active entry may exist per request.
func (s AssignmentStatus) Active() bool {
	return s != AssignmentStatusCancelled && s != AssignmentStatusCompleted
}

// Assignment binds one request to one employee at a point in time.
// ExpiresAt is set only for pending-confirmation holds.
type Assignment struct {
	ID          string
	RequestID   string
	EmployeeID  string
	Status      AssignmentStatus
	AssignedAt  time.Time
	ExpiresAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
