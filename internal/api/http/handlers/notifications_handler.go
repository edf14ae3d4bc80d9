package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/dto"
	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/service"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// NotificationsHandler serves the per-recipient inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipientFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := parsePaging(c)
	unreadOnly := c.QueryBool("unread_only")

	items, err := h.service.ListForRecipient(c.Context(), recipientType, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return err
	}
	responses := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		responses = append(responses, notificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipientFromContext(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Context(), c.Params("id"), recipientType, recipientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Dismiss DELETE /notifications/:id.
func (h *NotificationsHandler) Dismiss(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipientFromContext(c)
	if err != nil {
		return err
	}
	if err := h.service.Dismiss(c.Context(), c.Params("id"), recipientType, recipientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func recipientFromContext(c *fiber.Ctx) (domain.RecipientType, string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", "", apperrors.NewUnauthorized("authentication required")
	}
	switch {
	case principal.Customer != nil:
		return domain.RecipientTypeUser, principal.Customer.ID, nil
	case principal.Employee != nil:
		return domain.RecipientTypeEmployee, principal.Employee.ID, nil
	case principal.Admin != nil:
		return domain.RecipientTypeAdmin, principal.Admin.ID, nil
	}
	return "", "", apperrors.NewUnauthorized("unknown principal")
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		RequestID: n.RequestID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
