package dto

import (
	"time"

	"github.com/fixflow/repair-service/internal/domain"
)

// NotificationResponse is one inbox row.
type NotificationResponse struct {
	ID        string                      `json:"id"`
	RequestID *string                     `json:"request_id,omitempty"`
	Type      domain.NotificationType     `json:"type"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Priority  domain.NotificationPriority `json:"priority"`
	Read      bool                        `json:"read"`
	CreatedAt time.Time                   `json:"created_at"`
}
