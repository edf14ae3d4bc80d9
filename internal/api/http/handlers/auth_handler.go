package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/dto"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/service"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// AuthHandler exposes login and customer registration.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	subject := domain.SubjectType(strings.ToUpper(strings.TrimSpace(req.Subject)))
	result, err := h.service.Login(c.Context(), subject, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Subject:   result.Subject,
		SubjectID: result.SubjectID,
	}})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customer, err := h.service.RegisterCustomer(c.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CustomerResponse{
		ID:    customer.ID,
		Name:  customer.Name,
		Email: customer.Email,
		Phone: customer.Phone,
	}})
}
