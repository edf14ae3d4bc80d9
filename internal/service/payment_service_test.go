package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/observability"
)

type paymentEnv struct {
	requests      *fakeRequestRepo
	assignments   *fakeAssignmentRepo
	payments      *fakePaymentRepo
	notifications *fakeNotificationRepo
	svc           *PaymentService
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()
	env := &paymentEnv{
		requests:      newFakeRequestRepo(),
		assignments:   newFakeAssignmentRepo(),
		payments:      newFakePaymentRepo(),
		notifications: newFakeNotificationRepo(),
	}
	notifier := NewNotificationService(env.notifications, newFakeAdminRepo(testAdmins()...), zap.NewNop())
	env.svc = NewPaymentService(testAssignmentConfig(), PaymentDependencies{
		PaymentRepo:    env.payments,
		RequestRepo:    env.requests,
		AssignmentRepo: env.assignments,
		EmployeeRepo:   newFakeEmployeeRepo(testEmployees()...),
		Notifier:       notifier,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics(),
		Logger:         zap.NewNop(),
	})
	env.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return env
}

// inProgressRequest seeds a request with an in-progress ledger entry.
func (e *paymentEnv) inProgressRequest(employeeID string) *domain.Request {
	request := e.requests.add(&domain.Request{
		ExternalKey:   "REQ-PAY1",
		CustomerID:    "cus-1",
		CustomerName:  "Lea",
		CustomerPhone: "555-0101",
		CustomerEmail: "lea@example.com",
		Category:      "laptop",
		Description:   "won't boot",
		Status:        domain.RequestStatusInProgress,
		AssignedTo:    &employeeID,
	})
	e.assignments.add(&domain.Assignment{
		RequestID:  request.ID,
		EmployeeID: employeeID,
		Status:     domain.AssignmentStatusInProgress,
	})
	return request
}

func TestRecordCompletionSplitsPayment(t *testing.T) {
	env := newPaymentEnv(t)
	request := env.inProgressRequest("emp-1")

	payment, already, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:     request.ID,
		EmployeeID:    "emp-1",
		WorkTitle:     "mainboard swap",
		PaymentMethod: "card",
		TotalAmount:   1000,
	})
	require.NoError(t, err)
	require.False(t, already)

	require.InDelta(t, 250.0, payment.EmployeeIncome, 1e-9)
	require.InDelta(t, 750.0, payment.CompanyRevenue, 1e-9)
	require.Equal(t, "Lea", payment.CustomerName)
	require.Equal(t, "555-0101", payment.CustomerPhone)

	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestStatusCompleted, stored.Status)
	require.Nil(t, stored.AssignedTo)

	_, err = env.assignments.GetActiveByRequest(context.Background(), request.ID)
	require.Error(t, err)
}

func TestRecordCompletionRoundsToCents(t *testing.T) {
	env := newPaymentEnv(t)
	request := env.inProgressRequest("emp-1")

	payment, _, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   request.ID,
		EmployeeID:  "emp-1",
		TotalAmount: 100.01,
	})
	require.NoError(t, err)
	require.InDelta(t, 25.00, payment.EmployeeIncome, 1e-9)
	require.InDelta(t, 75.01, payment.CompanyRevenue, 1e-9)
	require.InDelta(t, payment.TotalAmount, payment.EmployeeIncome+payment.CompanyRevenue, 1e-9)
}

func TestRecordCompletionIsIdempotent(t *testing.T) {
	env := newPaymentEnv(t)
	request := env.inProgressRequest("emp-1")

	first, already, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   request.ID,
		EmployeeID:  "emp-1",
		TotalAmount: 400,
	})
	require.NoError(t, err)
	require.False(t, already)

	second, already, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   request.ID,
		EmployeeID:  "emp-1",
		TotalAmount: 999,
	})
	require.NoError(t, err)
	require.True(t, already)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 400.0, second.TotalAmount, 1e-9)
}

func TestRecordCompletionInsertFailureLeavesStateUnchanged(t *testing.T) {
	env := newPaymentEnv(t)
	request := env.inProgressRequest("emp-1")
	env.payments.failCreate = errors.New("disk full")

	_, _, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   request.ID,
		EmployeeID:  "emp-1",
		TotalAmount: 500,
	})
	require.Error(t, err)
	require.Equal(t, "PERSISTENCE_FAILED", domainCode(t, err))

	// No completed-without-payment state.
	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestStatusInProgress, stored.Status)
	require.NotNil(t, stored.AssignedTo)

	active, err := env.assignments.GetActiveByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusInProgress, active.Status)
	require.Zero(t, env.notifications.count())
}

func TestRecordCompletionValidatesInput(t *testing.T) {
	env := newPaymentEnv(t)

	_, _, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   "",
		EmployeeID:  "emp-1",
		TotalAmount: 100,
	})
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, _, err = env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   "req-1",
		EmployeeID:  "emp-1",
		TotalAmount: 0,
	})
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestRecordCompletionRequiresActiveAssignment(t *testing.T) {
	env := newPaymentEnv(t)
	request := env.requests.add(&domain.Request{
		ExternalKey: "REQ-PAY2",
		CustomerID:  "cus-1",
		Category:    "phone",
		Description: "battery",
		Status:      domain.RequestStatusPending,
	})

	_, _, err := env.svc.RecordCompletion(context.Background(), CompletionInput{
		RequestID:   request.ID,
		EmployeeID:  "emp-1",
		TotalAmount: 100,
	})
	require.Equal(t, "NOT_FOUND", domainCode(t, err))
}
