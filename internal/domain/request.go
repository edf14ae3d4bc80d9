package domain

import "time"

// RequestStatus enumerates lifecycle states for repair requests.
type RequestStatus string

const (
	RequestStatusPending             RequestStatus = "pending"
	RequestStatusPendingConfirmation RequestStatus = "pending-confirmation"
	RequestStatusAssigned            RequestStatus = "assigned"
	RequestStatusInProgress          RequestStatus = "in-progress"
	RequestStatusOnHold              RequestStatus = "on_hold"
	RequestStatusCompleted           RequestStatus = "completed"
	RequestStatusCancelled           RequestStatus = "cancelled"
)

// RequiresAssignee reports whether a request in this status must carry a
// non-null assigned employee. The inverse holds for pending/cancelled.
func (s RequestStatus) RequiresAssignee() bool {
	switch s {
	case RequestStatusAssigned, RequestStatusPendingConfirmation, RequestStatusInProgress, RequestStatusOnHold:
		return true
	}
	return false
}

// Terminal reports whether the request can no longer change state.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// Request is the aggregate for customer repair requests.
type Request struct {
	ID            string
	ExternalKey   string
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Category      string
	Brand         string
	Model         string
	Description   string
	Status        RequestStatus
	AssignedTo    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
