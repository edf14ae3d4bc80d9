package dto

import (
	"time"

	"github.com/fixflow/repair-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// RequestResponse is the public view of a repair request.
type RequestResponse struct {
	ID          string               `json:"id"`
	ExternalKey string               `json:"external_key"`
	CustomerID  string               `json:"customer_id"`
	Category    string               `json:"category"`
	Brand       string               `json:"brand"`
	Model       string               `json:"model"`
	Description string               `json:"description"`
	Status      domain.RequestStatus `json:"status"`
	AssignedTo  *string              `json:"assigned_to"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
