package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/repository"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// RequestService handles customer submission and browsing of repair
// requests. All assignment-related mutation goes through the coordinator.
type RequestService struct {
	requests   repository.RequestRepository
	notifier   *NotificationService
	dispatcher events.Dispatcher
}

// NewRequestService creates the service.
func NewRequestService(requests repository.RequestRepository, notifier *NotificationService, dispatcher events.Dispatcher) *RequestService {
	return &RequestService{requests: requests, notifier: notifier, dispatcher: dispatcher}
}

// RequestCreateInput describes a customer submission.
type RequestCreateInput struct {
	Category    string
	Brand       string
	Model       string
	Description string
}

// CreateRequest records a new repair request in the unassigned pool.
func (s *RequestService) CreateRequest(ctx context.Context, customer *domain.Customer, input RequestCreateInput) (*domain.Request, error) {
	if customer == nil {
		return nil, apperrors.NewUnauthorized("customer required")
	}
	if strings.TrimSpace(input.Category) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("category and description required", nil)
	}

	request := &domain.Request{
		ExternalKey:   generateRequestKey(),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerEmail: customer.Email,
		Category:      strings.TrimSpace(input.Category),
		Brand:         strings.TrimSpace(input.Brand),
		Model:         strings.TrimSpace(input.Model),
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationRequestCreated,
		CustomerID:      customer.ID,
		CustomerTitle:   "Request received",
		CustomerMessage: fmt.Sprintf("Your %s repair request %s was received.", request.Category, request.ExternalKey),
		AdminTitle:      "New repair request",
		AdminMessage:    fmt.Sprintf("Request %s (%s %s) awaits assignment.", request.ExternalKey, request.Brand, request.Model),
	})
	if s.dispatcher != nil {
		customerID := customer.ID
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRequestCreated,
			RequestID: request.ID,
			Actor:     events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: &customerID},
			Timestamp: time.Now(),
			Payload: events.RequestCreatedPayload{
				Category:      request.Category,
				Brand:         request.Brand,
				Model:         request.Model,
				CustomerEmail: request.CustomerEmail,
			},
		})
	}
	return request, nil
}

// ListForCustomer returns the customer's own requests.
func (s *RequestService) ListForCustomer(ctx context.Context, customerID string, statuses []domain.RequestStatus, limit, offset int) ([]domain.Request, error) {
	requests, err := s.requests.ListWithFilter(ctx, repository.RequestFilter{
		CustomerID: &customerID,
		Statuses:   statuses,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// GetForCustomer fetches a request ensuring ownership.
func (s *RequestService) GetForCustomer(ctx context.Context, customerID, requestID string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	if request.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return request, nil
}

// ListAll returns requests for the admin console.
func (s *RequestService) ListAll(ctx context.Context, statuses []domain.RequestStatus, limit, offset int) ([]domain.Request, error) {
	requests, err := s.requests.ListWithFilter(ctx, repository.RequestFilter{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// ListForEmployee returns requests currently assigned to an employee.
func (s *RequestService) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]domain.Request, error) {
	requests, err := s.requests.ListWithFilter(ctx, repository.RequestFilter{
		AssignedTo: &employeeID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

func generateRequestKey() string {
	return "REQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
