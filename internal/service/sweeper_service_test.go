package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/observability"
)

type sweeperEnv struct {
	requests      *fakeRequestRepo
	assignments   *fakeAssignmentRepo
	employees     *fakeEmployeeRepo
	notifications *fakeNotificationRepo
	locker        *fakeLocker
	svc           *SweeperService
	now           time.Time
}

func newSweeperEnv(t *testing.T, employees ...domain.Employee) *sweeperEnv {
	t.Helper()
	env := &sweeperEnv{
		requests:      newFakeRequestRepo(),
		assignments:   newFakeAssignmentRepo(),
		employees:     newFakeEmployeeRepo(employees...),
		notifications: newFakeNotificationRepo(),
		locker:        &fakeLocker{acquired: true},
		now:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	notifier := NewNotificationService(env.notifications, newFakeAdminRepo(testAdmins()...), zap.NewNop())
	env.svc = NewSweeperService(testAssignmentConfig(), SweeperDependencies{
		RequestRepo:    env.requests,
		AssignmentRepo: env.assignments,
		EmployeeRepo:   env.employees,
		Notifier:       notifier,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Locks:          env.locker,
		Metrics:        observability.NewMetrics(),
		Logger:         zap.NewNop(),
	})
	env.svc.now = func() time.Time { return env.now }
	return env
}

// expiredHold seeds a request whose pending-confirmation hold lapsed.
func (e *sweeperEnv) expiredHold(employeeID string) (*domain.Request, *domain.Assignment) {
	request := e.requests.add(&domain.Request{
		ExternalKey:   "REQ-EXP1",
		CustomerID:    "cus-1",
		CustomerEmail: "lea@example.com",
		Category:      "phone",
		Description:   "cracked screen",
		Status:        domain.RequestStatusPendingConfirmation,
		AssignedTo:    &employeeID,
	})
	expired := e.now.Add(-time.Minute)
	entry := &domain.Assignment{
		RequestID:  request.ID,
		EmployeeID: employeeID,
		Status:     domain.AssignmentStatusPendingConfirmation,
		ExpiresAt:  &expired,
	}
	e.assignments.add(entry)
	return request, entry
}

func TestSweepReassignsToFreeEmployee(t *testing.T) {
	env := newSweeperEnv(t,
		domain.Employee{ID: "emp-1", Name: "Dana", Active: true},
		domain.Employee{ID: "emp-2", Name: "Rami", Active: true},
	)
	request, expired := env.expiredHold("emp-1")

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Expired)
	require.Equal(t, 1, result.Reassigned)
	require.Zero(t, result.Reverted)
	require.Zero(t, result.Failed)

	_, err = env.assignments.GetByID(context.Background(), expired.ID)
	require.Error(t, err)

	replacement, err := env.assignments.GetActiveByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, "emp-2", replacement.EmployeeID)
	require.Equal(t, domain.AssignmentStatusPendingConfirmation, replacement.Status)
	require.NotNil(t, replacement.ExpiresAt)
	require.Equal(t, env.now.Add(5*time.Minute), *replacement.ExpiresAt)

	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestStatusPendingConfirmation, stored.Status)
	require.Equal(t, "emp-2", *stored.AssignedTo)
	require.Equal(t, 1, env.locker.released)
}

func TestSweepRevertsWhenNoFreeEmployee(t *testing.T) {
	env := newSweeperEnv(t,
		domain.Employee{ID: "emp-1", Name: "Dana", Active: true},
		domain.Employee{ID: "emp-2", Name: "Rami", Active: true},
	)
	request, _ := env.expiredHold("emp-1")

	// emp-2 is busy elsewhere, so nobody can take over.
	env.assignments.add(&domain.Assignment{
		RequestID:  "req-other",
		EmployeeID: "emp-2",
		Status:     domain.AssignmentStatusInProgress,
	})

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Reverted)
	require.Zero(t, result.Reassigned)

	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestStatusPending, stored.Status)
	require.Nil(t, stored.AssignedTo)
}

func TestSweepNeverHandsBackToExpiredEmployee(t *testing.T) {
	env := newSweeperEnv(t, domain.Employee{ID: "emp-1", Name: "Dana", Active: true})
	request, _ := env.expiredHold("emp-1")

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Reverted)

	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestStatusPending, stored.Status)
}

func TestSweepSkipsInactiveEmployees(t *testing.T) {
	env := newSweeperEnv(t,
		domain.Employee{ID: "emp-1", Name: "Dana", Active: true},
		domain.Employee{ID: "emp-2", Name: "Rami", Active: false},
	)
	request, _ := env.expiredHold("emp-1")

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Reverted)

	stored, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Nil(t, stored.AssignedTo)
}

func TestSweepConflictsWhenLockHeld(t *testing.T) {
	env := newSweeperEnv(t, domain.Employee{ID: "emp-1", Active: true})
	env.locker.acquired = false

	_, err := env.svc.SweepExpired(context.Background())
	require.Error(t, err)
	require.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestSweepEntryFailureDoesNotAbortRun(t *testing.T) {
	env := newSweeperEnv(t,
		domain.Employee{ID: "emp-1", Name: "Dana", Active: true},
		domain.Employee{ID: "emp-2", Name: "Rami", Active: true},
	)
	_, _ = env.expiredHold("emp-1")

	// Second expired hold points at a request that no longer exists.
	expired := env.now.Add(-2 * time.Minute)
	env.assignments.add(&domain.Assignment{
		RequestID:  "req-gone",
		EmployeeID: "emp-2",
		Status:     domain.AssignmentStatusPendingConfirmation,
		ExpiresAt:  &expired,
	})

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Expired)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, result.Reassigned+result.Reverted, 1)
}

func TestSweepNoExpiredHolds(t *testing.T) {
	env := newSweeperEnv(t, domain.Employee{ID: "emp-1", Active: true})

	result, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Expired)
	require.Zero(t, env.notifications.count())
}
