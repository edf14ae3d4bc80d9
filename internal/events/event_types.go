package events

import (
	"time"

	"github.com/fixflow/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated    EventType = "request_created"
	EventEngineerAssigned  EventType = "engineer_assigned"
	EventRequestAccepted   EventType = "request_accepted"
	EventRequestRejected   EventType = "request_rejected"
	EventStatusUpdated     EventType = "status_updated"
	EventRequestCompleted  EventType = "request_completed"
	EventRequestCancelled  EventType = "request_cancelled"
	EventRequestOnHold     EventType = "request_on_hold"
	EventAssignmentExpired EventType = "assignment_expired"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	CustomerID *string            `json:"customer_id,omitempty"`
	EmployeeID *string            `json:"employee_id,omitempty"`
	AdminID    *string            `json:"admin_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Category      string `json:"category"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	CustomerEmail string `json:"customer_email"`
}

// EngineerAssignedPayload payload.
type EngineerAssignedPayload struct {
	EmployeeID           string     `json:"employee_id"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	CustomerEmail        string     `json:"customer_email"`
}

// ConfirmationDecidedPayload payload for accept/reject.
type ConfirmationDecidedPayload struct {
	EmployeeID    string `json:"employee_id"`
	Accepted      bool   `json:"accepted"`
	Reason        string `json:"reason,omitempty"`
	CustomerEmail string `json:"customer_email"`
}

// StatusUpdatedPayload payload.
type StatusUpdatedPayload struct {
	OldStatus     domain.RequestStatus `json:"old_status"`
	NewStatus     domain.RequestStatus `json:"new_status"`
	CustomerEmail string               `json:"customer_email"`
}

// RequestCompletedPayload payload.
type RequestCompletedPayload struct {
	EmployeeID    string  `json:"employee_id"`
	TotalAmount   float64 `json:"total_amount"`
	CustomerEmail string  `json:"customer_email"`
}

// RequestCancelledPayload payload.
type RequestCancelledPayload struct {
	Reason        string  `json:"reason"`
	EmployeeID    *string `json:"employee_id,omitempty"`
	CustomerEmail string  `json:"customer_email"`
}
