package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/dto"
	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/service"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// RequestsHandler manages request submission and browsing.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.CreateRequest(c.Context(), principal.Customer, service.RequestCreateInput{
		Category:    req.Category,
		Brand:       req.Brand,
		Model:       req.Model,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// ListRequests GET /requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	limit, offset := parsePaging(c)
	requests, err := h.service.ListForCustomer(c.Context(), principal.Customer.ID, parseStatuses(c), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(requests)})
}

// GetRequest GET /requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	request, err := h.service.GetForCustomer(c.Context(), principal.Customer.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// ListAllRequests GET /admin/requests.
func (h *RequestsHandler) ListAllRequests(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	requests, err := h.service.ListAll(c.Context(), parseStatuses(c), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(requests)})
}

// ListAssignedRequests GET /employee/requests.
func (h *RequestsHandler) ListAssignedRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	limit, offset := parsePaging(c)
	requests, err := h.service.ListForEmployee(c.Context(), principal.Employee.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(requests)})
}

func parseStatuses(c *fiber.Ctx) []domain.RequestStatus {
	statusStr := c.Query("status")
	if statusStr == "" {
		return nil
	}
	var statuses []domain.RequestStatus
	for _, part := range strings.Split(statusStr, ",") {
		statuses = append(statuses, domain.RequestStatus(strings.TrimSpace(part)))
	}
	return statuses
}

func parsePaging(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func requestResponse(request *domain.Request) dto.RequestResponse {
	return dto.RequestResponse{
		ID:          request.ID,
		ExternalKey: request.ExternalKey,
		CustomerID:  request.CustomerID,
		Category:    request.Category,
		Brand:       request.Brand,
		Model:       request.Model,
		Description: request.Description,
		Status:      request.Status,
		AssignedTo:  request.AssignedTo,
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
	}
}

func requestResponses(requests []domain.Request) []dto.RequestResponse {
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return items
}
