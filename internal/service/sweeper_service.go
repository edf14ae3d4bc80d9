package service

import (
	"context"
	"fmt"
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

const sweepLockKey = "assignments:sweep"

// SweepLocker serializes concurrent sweep triggers. The redis client in
// internal/persistence satisfies it.
type SweepLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// SweeperService reclaims pending-confirmation holds an employee failed to
// answer in time. It is driven by an external trigger, not a timer.
type SweeperService struct {
	requests    repository.RequestRepository
	assignments repository.AssignmentRepository
	employees   repository.EmployeeRepository
	notifier    *NotificationService
	dispatcher  events.Dispatcher
	locks       SweepLocker
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.AssignmentConfig
	now         func() time.Time
}

// SweeperDependencies bundles collaborators.
type SweeperDependencies struct {
	RequestRepo    repository.RequestRepository
	AssignmentRepo repository.AssignmentRepository
	EmployeeRepo   repository.EmployeeRepository
	Notifier       *NotificationService
	Dispatcher     events.Dispatcher
	Locks          SweepLocker
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewSweeperService creates the service.
func NewSweeperService(cfg config.AssignmentConfig, deps SweeperDependencies) *SweeperService {
	return &SweeperService{
		requests:    deps.RequestRepo,
		assignments: deps.AssignmentRepo,
		employees:   deps.EmployeeRepo,
		notifier:    deps.Notifier,
		dispatcher:  deps.Dispatcher,
		locks:       deps.Locks,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Expired    int `json:"expired"`
	Reassigned int `json:"reassigned"`
	Reverted   int `json:"reverted"`
	Failed     int `json:"failed"`
}

// SweepExpired processes every expired hold independently: the hold is
// released and the request either handed to a free employee under a fresh
// hold or returned to the unassigned pool. A failure on one entry never
// aborts the rest.
func (s *SweeperService) SweepExpired(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	if s.locks != nil {
		acquired, err := s.locks.AcquireLock(ctx, sweepLockKey, s.cfg.SweepLockTTL())
		if err != nil {
			s.logger.Warn("sweep lock unavailable; proceeding unguarded", zap.Error(err))
		} else if !acquired {
			return result, apperrors.NewConflict("sweep already running", nil)
		} else {
			defer func() {
				if err := s.locks.ReleaseLock(ctx, sweepLockKey); err != nil {
					s.logger.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	expired, err := s.assignments.ListExpired(ctx, s.now())
	if err != nil {
		return result, apperrors.MapError(err)
	}
	result.Expired = len(expired)

	for i := range expired {
		outcome, err := s.reclaim(ctx, &expired[i])
		if err != nil {
			result.Failed++
			s.metrics.RecordOperation("sweep_entry", "failed")
			s.logger.Error("expired assignment reclaim failed",
				zap.String("assignment_id", expired[i].ID),
				zap.String("request_id", expired[i].RequestID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case sweepReassigned:
			result.Reassigned++
			s.metrics.RecordOperation("sweep_entry", "reassigned")
		case sweepReverted:
			result.Reverted++
			s.metrics.RecordOperation("sweep_entry", "reverted")
		}
	}
	return result, nil
}

type sweepOutcome int

const (
	sweepReassigned sweepOutcome = iota
	sweepReverted
)

func (s *SweeperService) reclaim(ctx context.Context, expired *domain.Assignment) (sweepOutcome, error) {
	if err := s.assignments.DeleteByID(ctx, expired.ID); err != nil {
		if apperrors.IsNotFound(err) {
			// Another trigger already reclaimed it.
			return sweepReverted, nil
		}
		return 0, err
	}

	request, err := s.requests.GetByID(ctx, expired.RequestID)
	if err != nil {
		return 0, err
	}

	replacement, err := s.findFreeEmployee(ctx, expired.EmployeeID)
	if err != nil {
		return 0, err
	}
	if replacement == nil {
		request.Status = domain.RequestStatusPending
		request.AssignedTo = nil
		if err := s.requests.Update(ctx, request); err != nil {
			return 0, err
		}
		s.notifier.Fanout(ctx, FanoutInput{
			RequestID:       request.ID,
			Type:            domain.NotificationStatusUpdate,
			CustomerID:      request.CustomerID,
			CustomerTitle:   "Request awaiting assignment",
			CustomerMessage: "Your repair request is back in the queue and will be assigned shortly.",
			AdminTitle:      "Hold expired",
			AdminMessage:    fmt.Sprintf("Request %s returned to the pool; no free employee available.", request.ExternalKey),
		})
		return sweepReverted, nil
	}

	expiresAt := s.now().Add(s.cfg.ConfirmationTTL())
	entry := &domain.Assignment{
		RequestID:  request.ID,
		EmployeeID: replacement.ID,
		Status:     domain.AssignmentStatusPendingConfirmation,
		ExpiresAt:  &expiresAt,
	}
	if err := s.assignments.Create(ctx, entry); err != nil {
		return 0, err
	}

	request.Status = domain.RequestStatusPendingConfirmation
	request.AssignedTo = &replacement.ID
	if err := s.requests.Update(ctx, request); err != nil {
		if delErr := s.assignments.DeleteByID(ctx, entry.ID); delErr != nil {
			s.logger.Error("sweep rollback failed; ledger inconsistent",
				zap.String("assignment_id", entry.ID), zap.Error(delErr))
		}
		return 0, err
	}

	employeeID := replacement.ID
	s.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationEngineerAssigned,
		Priority:        domain.PriorityHigh,
		CustomerID:      request.CustomerID,
		CustomerTitle:   "Engineer reassigned",
		CustomerMessage: fmt.Sprintf("%s has been assigned to your repair request.", replacement.Name),
		AdminTitle:      "Hold expired, request reassigned",
		AdminMessage:    fmt.Sprintf("Request %s reassigned to %s after confirmation timeout.", request.ExternalKey, replacement.Name),
		EmployeeID:      &employeeID,
		EmployeeTitle:   "New assignment",
		EmployeeMessage: fmt.Sprintf("You have been assigned request %s; please confirm within %d minutes.", request.ExternalKey, int(s.cfg.ConfirmationTTL().Minutes())),
	})
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventEngineerAssigned,
			RequestID: request.ID,
			Timestamp: s.now(),
			Payload: events.EngineerAssignedPayload{
				EmployeeID:           replacement.ID,
				RequiresConfirmation: true,
				ExpiresAt:            entry.ExpiresAt,
				CustomerEmail:        request.CustomerEmail,
			},
		})
	}
	return sweepReassigned, nil
}

// findFreeEmployee returns the first active employee with no active ledger
// entries, skipping the one whose hold just expired. Busy-ness is derived
// from the ledger, not a stored flag.
func (s *SweeperService) findFreeEmployee(ctx context.Context, excludeID string) (*domain.Employee, error) {
	active := true
	candidates, err := s.employees.List(ctx, repository.EmployeeFilter{Active: &active})
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].ID == excludeID {
			continue
		}
		count, err := s.assignments.CountActiveByEmployee(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return &candidates[i], nil
		}
	}
	return nil, nil
}
