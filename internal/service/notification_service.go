package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/repository"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// NotificationService translates one lifecycle event into independent
// notification rows, one per audience member.
type NotificationService struct {
	notifications repository.NotificationRepository
	admins        repository.AdminRepository
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, admins repository.AdminRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		admins:        admins,
		logger:        logger,
	}
}

// FanoutInput carries per-audience text for one lifecycle event. Customer
// and admin wording routinely differ for the same event; an employee row is
// produced only when both EmployeeID and employee text are supplied.
type FanoutInput struct {
	RequestID string
	Type      domain.NotificationType
	Priority  domain.NotificationPriority

	CustomerID      string
	CustomerTitle   string
	CustomerMessage string

	AdminTitle   string
	AdminMessage string

	EmployeeID      *string
	EmployeeTitle   string
	EmployeeMessage string
}

// Fanout writes one row per audience member. Each write is independent: a
// failure for one audience is logged and never blocks the others, and no
// error is returned to the triggering operation.
func (n *NotificationService) Fanout(ctx context.Context, input FanoutInput) {
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	var targets []domain.Notification

	if input.CustomerID != "" && input.CustomerTitle != "" {
		targets = append(targets, n.buildRow(input, domain.RecipientTypeUser, input.CustomerID, input.CustomerTitle, input.CustomerMessage, priority))
	}
	if input.AdminTitle != "" {
		admins, err := n.admins.List(ctx)
		if err != nil {
			n.logger.Error("resolve admin recipients failed",
				zap.String("request_id", input.RequestID), zap.Error(err))
		}
		for _, admin := range admins {
			targets = append(targets, n.buildRow(input, domain.RecipientTypeAdmin, admin.ID, input.AdminTitle, input.AdminMessage, priority))
		}
	}
	if input.EmployeeID != nil && strings.TrimSpace(*input.EmployeeID) != "" && input.EmployeeTitle != "" {
		targets = append(targets, n.buildRow(input, domain.RecipientTypeEmployee, *input.EmployeeID, input.EmployeeTitle, input.EmployeeMessage, priority))
	}

	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(row domain.Notification) {
			defer wg.Done()
			if err := n.notifications.Create(ctx, &row); err != nil {
				n.logger.Error("notification write failed",
					zap.String("request_id", input.RequestID),
					zap.String("recipient_type", string(row.RecipientType)),
					zap.String("recipient_id", row.RecipientID),
					zap.Error(err))
			}
		}(targets[i])
	}
	wg.Wait()
}

func (n *NotificationService) buildRow(input FanoutInput, recipientType domain.RecipientType, recipientID, title, message string, priority domain.NotificationPriority) domain.Notification {
	var requestRef *string
	if input.RequestID != "" {
		requestID := input.RequestID
		requestRef = &requestID
	}
	return domain.Notification{
		RecipientType: recipientType,
		RecipientID:   recipientID,
		RequestID:     requestRef,
		Type:          input.Type,
		Title:         title,
		Message:       message,
		Priority:      priority,
	}
}

// ListForRecipient returns the recipient's inbox.
func (n *NotificationService) ListForRecipient(ctx context.Context, recipientType domain.RecipientType, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByRecipient(ctx, recipientType, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flips the per-recipient read flag.
func (n *NotificationService) MarkRead(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	if err := n.notifications.MarkRead(ctx, id, recipientType, recipientID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Dismiss deletes a notification on explicit user dismissal.
func (n *NotificationService) Dismiss(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	if err := n.notifications.Delete(ctx, id, recipientType, recipientID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}
