package dto

import (
	"time"

	"github.com/fixflow/repair-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Subject  string `json:"subject"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token.
type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	Subject   domain.SubjectType `json:"subject"`
	SubjectID string             `json:"subject_id"`
}

// RegisterCustomerRequest payload.
type RegisterCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// CustomerResponse is the public customer view.
type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
