package dto

import (
	"time"

	"github.com/fixflow/repair-service/internal/domain"
)

// AssignEmployeeRequest payload.
type AssignEmployeeRequest struct {
	EmployeeID          string `json:"employee_id"`
	RequireConfirmation bool   `json:"require_confirmation"`
}

// ConfirmationRequest payload for the employee's answer to a hold.
type ConfirmationRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// WorkStatusRequest payload for accept/start/complete.
type WorkStatusRequest struct {
	Action string `json:"action"`
}

// ReportIssueRequest payload for cancel/on-hold reports.
type ReportIssueRequest struct {
	Reason  string `json:"reason"`
	Title   string `json:"title"`
	Details string `json:"details,omitempty"`
}

// AdminCancelRequest payload.
type AdminCancelRequest struct {
	Title   string `json:"title"`
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// AssignmentResponse is the public view of a ledger entry.
type AssignmentResponse struct {
	ID          string                  `json:"id"`
	RequestID   string                  `json:"request_id"`
	EmployeeID  string                  `json:"employee_id"`
	Status      domain.AssignmentStatus `json:"status"`
	AssignedAt  time.Time               `json:"assigned_at"`
	ExpiresAt   *time.Time              `json:"expires_at,omitempty"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}
