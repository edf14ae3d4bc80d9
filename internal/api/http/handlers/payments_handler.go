package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/dto"
	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/service"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// PaymentsHandler records the financial close of a request.
type PaymentsHandler struct {
	service *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{service: paymentService}
}

// RecordCompletion POST /employee/assignments/:id/completion.
func (h *PaymentsHandler) RecordCompletion(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.RecordCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	payment, alreadyProcessed, err := h.service.RecordCompletion(c.Context(), service.CompletionInput{
		RequestID:     c.Params("id"),
		EmployeeID:    principal.Employee.ID,
		WorkTitle:     req.WorkTitle,
		WorkDetails:   req.WorkDetails,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		return err
	}
	status := fiber.StatusCreated
	if alreadyProcessed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"data": completionPaymentResponse(payment)})
}

func completionPaymentResponse(payment *domain.CompletionPayment) dto.CompletionPaymentResponse {
	return dto.CompletionPaymentResponse{
		ID:             payment.ID,
		RequestID:      payment.RequestID,
		EmployeeID:     payment.EmployeeID,
		TotalAmount:    payment.TotalAmount,
		EmployeeIncome: payment.EmployeeIncome,
		CompanyRevenue: payment.CompanyRevenue,
		PaymentMethod:  payment.PaymentMethod,
		WorkTitle:      payment.WorkTitle,
		WorkDetails:    payment.WorkDetails,
		CompletedAt:    payment.CompletedAt,
	}
}
