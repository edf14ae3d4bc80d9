package domain

import "time"

// RecipientType identifies which audience a notification addresses.
type RecipientType string

const (
	RecipientTypeAdmin    RecipientType = "admin"
	RecipientTypeEmployee RecipientType = "employee"
	RecipientTypeUser     RecipientType = "user"
)

// NotificationType tags the lifecycle event behind a notification.
type NotificationType string

const (
	NotificationRequestCreated   NotificationType = "request_created"
	NotificationEngineerAssigned NotificationType = "engineer_assigned"
	NotificationRequestAccepted  NotificationType = "request_accepted"
	NotificationRequestRejected  NotificationType = "request_rejected"
	NotificationStatusUpdate     NotificationType = "status_update"
	NotificationRequestCompleted NotificationType = "request_completed"
	NotificationRequestCancelled NotificationType = "request_cancelled"
)

// NotificationPriority controls inbox ordering hints.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is a message addressed to exactly one recipient identity.
// Read state is per-recipient; there are no broadcast rows.
type Notification struct {
	ID            string
	RecipientType RecipientType
	RecipientID   string
	RequestID     *string
	Type          NotificationType
	Title         string
	Message       string
	Priority      NotificationPriority
	Read          bool
	CreatedAt     time.Time
}
