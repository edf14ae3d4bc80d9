package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/config"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/observability"
	"github.com/fixflow/repair-service/internal/repository"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// PaymentService closes a request financially, exactly once per request.
type PaymentService struct {
	payments    repository.CompletionPaymentRepository
	requests    repository.RequestRepository
	assignments repository.AssignmentRepository
	employees   repository.EmployeeRepository
	notifier    *NotificationService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.AssignmentConfig
	now         func() time.Time
}

// PaymentDependencies bundles collaborators.
type PaymentDependencies struct {
	PaymentRepo    repository.CompletionPaymentRepository
	RequestRepo    repository.RequestRepository
	AssignmentRepo repository.AssignmentRepository
	EmployeeRepo   repository.EmployeeRepository
	Notifier       *NotificationService
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewPaymentService creates the service.
func NewPaymentService(cfg config.AssignmentConfig, deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:    deps.PaymentRepo,
		requests:    deps.RequestRepo,
		assignments: deps.AssignmentRepo,
		employees:   deps.EmployeeRepo,
		notifier:    deps.Notifier,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// CompletionInput describes the financial close of a request.
type CompletionInput struct {
	RequestID     string
	EmployeeID    string
	WorkTitle     string
	WorkDetails   string
	PaymentMethod string
	TotalAmount   float64
}

// RecordCompletion inserts the CompletionPayment, then advances the request
// and ledger entry to completed. Duplicate submissions short-circuit to the
// existing record. When the payment insert fails the request status is not
// advanced; there is no completed-but-unpaid state.
func (p *PaymentService) RecordCompletion(ctx context.Context, input CompletionInput) (*domain.CompletionPayment, bool, error) {
	if strings.TrimSpace(input.RequestID) == "" || strings.TrimSpace(input.EmployeeID) == "" {
		return nil, false, apperrors.NewValidationError("request_id and employee_id required", nil)
	}
	if input.TotalAmount <= 0 {
		return nil, false, apperrors.NewValidationError("total_amount must be positive", map[string]any{"total_amount": input.TotalAmount})
	}

	if existing, err := p.payments.GetByRequest(ctx, input.RequestID); err == nil {
		return existing, true, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, false, apperrors.MapError(err)
	}

	request, err := p.requests.GetByID(ctx, input.RequestID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, false, apperrors.NewNotFound("request", map[string]any{"request_id": input.RequestID})
		}
		return nil, false, apperrors.MapError(err)
	}
	if _, err := p.employees.GetByID(ctx, input.EmployeeID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, false, apperrors.NewNotFound("employee", map[string]any{"employee_id": input.EmployeeID})
		}
		return nil, false, apperrors.MapError(err)
	}
	entry, err := p.assignments.GetActiveByRequestEmployee(ctx, input.RequestID, input.EmployeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, false, apperrors.NewNotFound("assignment", map[string]any{"request_id": input.RequestID, "employee_id": input.EmployeeID})
		}
		return nil, false, apperrors.MapError(err)
	}

	income := roundCurrency(input.TotalAmount * p.cfg.EmployeeShare)
	revenue := roundCurrency(input.TotalAmount - income)

	payment := &domain.CompletionPayment{
		RequestID:      input.RequestID,
		EmployeeID:     input.EmployeeID,
		TotalAmount:    input.TotalAmount,
		EmployeeIncome: income,
		CompanyRevenue: revenue,
		PaymentMethod:  input.PaymentMethod,
		WorkTitle:      input.WorkTitle,
		WorkDetails:    input.WorkDetails,
		CustomerName:   request.CustomerName,
		CustomerPhone:  request.CustomerPhone,
	}
	if err := p.payments.Create(ctx, payment); err != nil {
		// Abort before any status change: the request must not read
		// completed without a payment record.
		return nil, false, apperrors.NewPersistence("record payment failed", err, map[string]any{"state": "unchanged"})
	}

	request.Status = domain.RequestStatusCompleted
	request.AssignedTo = nil
	if err := p.requests.Update(ctx, request); err != nil {
		return payment, false, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "partially changed"})
	}

	completedAt := p.now()
	entry.Status = domain.AssignmentStatusCompleted
	entry.CompletedAt = &completedAt
	if err := p.assignments.Update(ctx, entry); err != nil {
		p.logger.Error("assignment completion update failed",
			zap.String("assignment_id", entry.ID), zap.Error(err))
	}

	p.metrics.RecordOperation("record_completion", "success")
	employeeID := input.EmployeeID
	p.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationRequestCompleted,
		Priority:        domain.PriorityHigh,
		CustomerID:      request.CustomerID,
		CustomerTitle:   "Repair completed",
		CustomerMessage: fmt.Sprintf("Your %s repair is complete. Total paid: %.2f.", request.Category, payment.TotalAmount),
		AdminTitle:      "Request completed",
		AdminMessage:    fmt.Sprintf("Request %s completed; revenue %.2f, employee income %.2f.", request.ExternalKey, payment.CompanyRevenue, payment.EmployeeIncome),
		EmployeeID:      &employeeID,
		EmployeeTitle:   "Completion recorded",
		EmployeeMessage: fmt.Sprintf("Your income for request %s is %.2f.", request.ExternalKey, payment.EmployeeIncome),
	})
	if p.dispatcher != nil {
		_ = p.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRequestCompleted,
			RequestID: request.ID,
			Timestamp: p.now(),
			Payload: events.RequestCompletedPayload{
				EmployeeID:    input.EmployeeID,
				TotalAmount:   payment.TotalAmount,
				CustomerEmail: request.CustomerEmail,
			},
		})
	}
	return payment, false, nil
}

// roundCurrency rounds to two decimal places.
func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
