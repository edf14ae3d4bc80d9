package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/dto"
	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/service"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// AssignmentsHandler exposes the coordinator and sweeper over HTTP. Employee
// routes address the assignment by its request id; the active ledger entry is
// unique per request.
type AssignmentsHandler struct {
	coordinator *service.CoordinatorService
	sweeper     *service.SweeperService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(coordinator *service.CoordinatorService, sweeper *service.SweeperService) *AssignmentsHandler {
	return &AssignmentsHandler{coordinator: coordinator, sweeper: sweeper}
}

// AssignEmployee POST /admin/requests/:id/assign.
func (h *AssignmentsHandler) AssignEmployee(c *fiber.Ctx) error {
	var req dto.AssignEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, entry, err := h.coordinator.AssignEmployee(c.Context(), c.Params("id"), req.EmployeeID, req.RequireConfirmation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"request":    requestResponse(request),
		"assignment": assignmentResponse(entry),
	}})
}

// Confirmation POST /employee/assignments/:id/confirmation.
func (h *AssignmentsHandler) Confirmation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.ConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	action := service.ConfirmationAction(strings.ToLower(strings.TrimSpace(req.Action)))
	request, entry, err := h.coordinator.ConfirmOrReject(c.Context(), c.Params("id"), principal.Employee.ID, action, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"request":    requestResponse(request),
		"assignment": assignmentResponse(entry),
	}})
}

// UpdateStatus POST /employee/assignments/:id/status.
func (h *AssignmentsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.WorkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	action := service.WorkAction(strings.ToLower(strings.TrimSpace(req.Action)))
	request, entry, err := h.coordinator.UpdateWorkStatus(c.Context(), c.Params("id"), principal.Employee.ID, action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"request":    requestResponse(request),
		"assignment": assignmentResponse(entry),
	}})
}

// ReportIssue POST /employee/assignments/:id/issue.
func (h *AssignmentsHandler) ReportIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.ReportIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	reason := service.IssueReason(strings.ToLower(strings.TrimSpace(req.Reason)))
	request, err := h.coordinator.ReportIssue(c.Context(), c.Params("id"), principal.Employee.ID, reason, req.Title, req.Details)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// AdminCancel POST /admin/requests/:id/cancel.
func (h *AssignmentsHandler) AdminCancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.AdminCancelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	request, err := h.coordinator.AdminCancel(c.Context(), principal.Admin.ID, c.Params("id"), req.Title, req.Reason, req.Details)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Sweep POST /admin/assignments/sweep.
func (h *AssignmentsHandler) Sweep(c *fiber.Ctx) error {
	result, err := h.sweeper.SweepExpired(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

func assignmentResponse(entry *domain.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          entry.ID,
		RequestID:   entry.RequestID,
		EmployeeID:  entry.EmployeeID,
		Status:      entry.Status,
		AssignedAt:  entry.AssignedAt,
		ExpiresAt:   entry.ExpiresAt,
		StartedAt:   entry.StartedAt,
		CompletedAt: entry.CompletedAt,
	}
}
