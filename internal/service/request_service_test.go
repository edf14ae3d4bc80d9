package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/events"
)

func newRequestServiceEnv(t *testing.T) (*RequestService, *fakeRequestRepo, *fakeNotificationRepo) {
	t.Helper()
	requests := newFakeRequestRepo()
	notifications := newFakeNotificationRepo()
	notifier := NewNotificationService(notifications, newFakeAdminRepo(testAdmins()...), zap.NewNop())
	return NewRequestService(requests, notifier, events.NewInMemoryDispatcher()), requests, notifications
}

func TestCreateRequestStartsPending(t *testing.T) {
	svc, _, notifications := newRequestServiceEnv(t)
	customer := &domain.Customer{ID: "cus-1", Name: "Lea", Email: "lea@example.com"}

	request, err := svc.CreateRequest(context.Background(), customer, RequestCreateInput{
		Category:    "laptop",
		Brand:       "Lenovo",
		Model:       "T14",
		Description: "won't boot",
	})
	require.NoError(t, err)

	require.Equal(t, domain.RequestStatusPending, request.Status)
	require.Nil(t, request.AssignedTo)
	require.True(t, strings.HasPrefix(request.ExternalKey, "REQ-"))
	require.Equal(t, "lea@example.com", request.CustomerEmail)

	// Customer plus both admins are notified of the new request.
	require.Equal(t, 3, notifications.count())
}

func TestCreateRequestValidatesInput(t *testing.T) {
	svc, _, _ := newRequestServiceEnv(t)
	customer := &domain.Customer{ID: "cus-1", Name: "Lea"}

	_, err := svc.CreateRequest(context.Background(), customer, RequestCreateInput{Category: " ", Description: "x"})
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.CreateRequest(context.Background(), nil, RequestCreateInput{Category: "laptop", Description: "x"})
	require.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestGetForCustomerEnforcesOwnership(t *testing.T) {
	svc, requests, _ := newRequestServiceEnv(t)
	stored := requests.add(&domain.Request{
		ExternalKey: "REQ-OWN1",
		CustomerID:  "cus-1",
		Category:    "phone",
		Description: "battery",
		Status:      domain.RequestStatusPending,
	})

	request, err := svc.GetForCustomer(context.Background(), "cus-1", stored.ID)
	require.NoError(t, err)
	require.Equal(t, stored.ID, request.ID)

	_, err = svc.GetForCustomer(context.Background(), "cus-2", stored.ID)
	require.Equal(t, "FORBIDDEN", domainCode(t, err))

	_, err = svc.GetForCustomer(context.Background(), "cus-1", "req-404")
	require.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestListForCustomerFiltersByStatus(t *testing.T) {
	svc, requests, _ := newRequestServiceEnv(t)
	requests.add(&domain.Request{CustomerID: "cus-1", Status: domain.RequestStatusPending, Category: "a", Description: "a"})
	requests.add(&domain.Request{CustomerID: "cus-1", Status: domain.RequestStatusCompleted, Category: "b", Description: "b"})
	requests.add(&domain.Request{CustomerID: "cus-2", Status: domain.RequestStatusPending, Category: "c", Description: "c"})

	mine, err := svc.ListForCustomer(context.Background(), "cus-1", nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	completed, err := svc.ListForCustomer(context.Background(), "cus-1", []domain.RequestStatus{domain.RequestStatusCompleted}, 20, 0)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, domain.RequestStatusCompleted, completed[0].Status)
}
