package service

import (
	"context"
	"fmt"
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

// CoordinatorService is the single authority for moving a request between
// assignment-related states. It keeps the assignment ledger, the request
// row, and the notification fan-out consistent, rolling back ledger writes
// when the request update fails.
type CoordinatorService struct {
	requests    repository.RequestRepository
	assignments repository.AssignmentRepository
	employees   repository.EmployeeRepository
	statusForms repository.StatusFormRepository
	notifier    *NotificationService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.AssignmentConfig
	now         func() time.Time
}

// CoordinatorDependencies bundles collaborators.
type CoordinatorDependencies struct {
	RequestRepo    repository.RequestRepository
	AssignmentRepo repository.AssignmentRepository
	EmployeeRepo   repository.EmployeeRepository
	StatusFormRepo repository.StatusFormRepository
	Notifier       *NotificationService
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewCoordinatorService creates the service.
func NewCoordinatorService(cfg config.AssignmentConfig, deps CoordinatorDependencies) *CoordinatorService {
	return &CoordinatorService{
		requests:    deps.RequestRepo,
		assignments: deps.AssignmentRepo,
		employees:   deps.EmployeeRepo,
		statusForms: deps.StatusFormRepo,
		notifier:    deps.Notifier,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ConfirmationAction is the employee's answer to a pending-confirmation hold.
type ConfirmationAction string

const (
	ActionConfirm ConfirmationAction = "confirm"
	ActionReject  ConfirmationAction = "reject"
)

// WorkAction moves an accepted assignment through the work states.
type WorkAction string

const (
	WorkActionAccept   WorkAction = "accept"
	WorkActionStart    WorkAction = "start"
	WorkActionComplete WorkAction = "complete"
)

// IssueReason is the employee-reported reason behind a non-completion change.
type IssueReason string

const (
	IssueCancelled IssueReason = "cancelled"
	IssueOnHold    IssueReason = "on_hold"
)

// AssignEmployee binds an employee to a request, superseding any existing
// hold. With requireConfirmation the new entry is a pending-confirmation
// hold that expires unless the employee answers in time.
func (s *CoordinatorService) AssignEmployee(ctx context.Context, requestID, employeeID string, requireConfirmation bool) (*domain.Request, *domain.Assignment, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(employeeID) == "" {
		return nil, nil, apperrors.NewValidationError("request_id and employee_id required", nil)
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, nil, apperrors.MapError(err)
	}

	// Snapshot the prior active entry so the reassignment delete can be
	// undone if a later step fails.
	prior, err := s.assignments.GetActiveByRequest(ctx, requestID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, nil, apperrors.MapError(err)
	}
	if _, err := s.assignments.DeleteActiveByRequest(ctx, requestID); err != nil {
		return nil, nil, apperrors.NewPersistence("release prior assignment failed", err, map[string]any{"state": "unchanged"})
	}

	entry := &domain.Assignment{
		RequestID:  requestID,
		EmployeeID: employee.ID,
		Status:     domain.AssignmentStatusAssigned,
	}
	if requireConfirmation {
		expires := s.now().Add(s.cfg.ConfirmationTTL())
		entry.Status = domain.AssignmentStatusPendingConfirmation
		entry.ExpiresAt = &expires
	}
	if err := s.assignments.Create(ctx, entry); err != nil {
		s.restoreSnapshot(ctx, prior)
		return nil, nil, apperrors.NewPersistence("create assignment failed", err, map[string]any{"state": "rollback attempted"})
	}

	oldStatus, oldAssignee := request.Status, request.AssignedTo
	request.AssignedTo = &employee.ID
	request.Status = domain.RequestStatus(entry.Status)
	if err := s.requests.Update(ctx, request); err != nil {
		// No orphaned ledger entry may survive a failed request update.
		if delErr := s.assignments.DeleteByID(ctx, entry.ID); delErr != nil {
			s.logger.Error("assignment rollback failed; ledger inconsistent",
				zap.String("request_id", requestID),
				zap.String("assignment_id", entry.ID),
				zap.Error(delErr))
		}
		s.restoreSnapshot(ctx, prior)
		request.Status, request.AssignedTo = oldStatus, oldAssignee
		return nil, nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
	}

	s.metrics.RecordOperation("assign_employee", "success")
	s.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationEngineerAssigned,
		CustomerID:      request.CustomerID,
		CustomerTitle:   "Engineer assigned",
		CustomerMessage: fmt.Sprintf("%s has been assigned to your %s repair request.", employee.Name, request.Category),
		AdminTitle:      "Request assigned",
		AdminMessage:    fmt.Sprintf("Request %s assigned to %s.", request.ExternalKey, employee.Name),
		EmployeeID:      &employee.ID,
		EmployeeTitle:   "New assignment",
		EmployeeMessage: fmt.Sprintf("You have been assigned request %s (%s %s).", request.ExternalKey, request.Brand, request.Model),
	})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventEngineerAssigned,
		RequestID: request.ID,
		Payload: events.EngineerAssignedPayload{
			EmployeeID:           employee.ID,
			RequiresConfirmation: requireConfirmation,
			ExpiresAt:            entry.ExpiresAt,
			CustomerEmail:        request.CustomerEmail,
		},
	})
	return request, entry, nil
}

// ConfirmOrReject records the employee's answer to a hold. Reject keeps the
// ledger entry as a cancelled audit record and returns the request to the
// unassigned pool.
func (s *CoordinatorService) ConfirmOrReject(ctx context.Context, requestID, employeeID string, action ConfirmationAction, reason string) (*domain.Request, *domain.Assignment, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(employeeID) == "" {
		return nil, nil, apperrors.NewValidationError("request_id and employee_id required", nil)
	}
	if action != ActionConfirm && action != ActionReject {
		return nil, nil, apperrors.NewValidationError("action must be confirm or reject", map[string]any{"action": action})
	}

	entry, err := s.assignments.GetActiveByRequestEmployee(ctx, requestID, employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("assignment", map[string]any{"request_id": requestID, "employee_id": employeeID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	before := *entry
	now := s.now()
	if action == ActionConfirm {
		entry.Status = domain.AssignmentStatusAssigned
		entry.StartedAt = &now
		entry.ExpiresAt = nil
	} else {
		entry.Status = domain.AssignmentStatusCancelled
		entry.CompletedAt = &now
		entry.ExpiresAt = nil
	}
	if err := s.assignments.Update(ctx, entry); err != nil {
		return nil, nil, apperrors.NewPersistence("update assignment failed", err, map[string]any{"state": "unchanged"})
	}

	oldStatus, oldAssignee := request.Status, request.AssignedTo
	if action == ActionConfirm {
		request.Status = domain.RequestStatusAssigned
		request.AssignedTo = &entry.EmployeeID
	} else {
		request.Status = domain.RequestStatusPending
		request.AssignedTo = nil
	}
	if err := s.requests.Update(ctx, request); err != nil {
		s.revertAssignment(ctx, &before)
		request.Status, request.AssignedTo = oldStatus, oldAssignee
		return nil, nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
	}

	if action == ActionConfirm {
		s.metrics.RecordOperation("confirm_assignment", "success")
		s.notifier.Fanout(ctx, FanoutInput{
			RequestID:       request.ID,
			Type:            domain.NotificationRequestAccepted,
			CustomerID:      request.CustomerID,
			CustomerTitle:   "Request accepted",
			CustomerMessage: "The assigned engineer accepted your repair request and will start soon.",
			AdminTitle:      "Assignment confirmed",
			AdminMessage:    fmt.Sprintf("Request %s was confirmed by the assigned employee.", request.ExternalKey),
		})
	} else {
		s.metrics.RecordOperation("reject_assignment", "success")
		message := "The assigned engineer declined the request; it returned to the queue."
		if strings.TrimSpace(reason) != "" {
			message = fmt.Sprintf("The assigned engineer declined the request: %s", reason)
		}
		s.notifier.Fanout(ctx, FanoutInput{
			RequestID:       request.ID,
			Type:            domain.NotificationRequestRejected,
			CustomerID:      request.CustomerID,
			CustomerTitle:   "Request awaiting reassignment",
			CustomerMessage: "Your repair request is being reassigned to another engineer.",
			AdminTitle:      "Assignment rejected",
			AdminMessage:    fmt.Sprintf("Request %s: %s", request.ExternalKey, message),
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:      confirmationEventType(action),
		RequestID: request.ID,
		Payload: events.ConfirmationDecidedPayload{
			EmployeeID:    entry.EmployeeID,
			Accepted:      action == ActionConfirm,
			Reason:        reason,
			CustomerEmail: request.CustomerEmail,
		},
	})
	return request, entry, nil
}

// workTransitions gates which request statuses admit each work action.
var workTransitions = map[WorkAction][]domain.RequestStatus{
	WorkActionAccept:   {domain.RequestStatusPendingConfirmation, domain.RequestStatusAssigned},
	WorkActionStart:    {domain.RequestStatusAssigned, domain.RequestStatusOnHold},
	WorkActionComplete: {domain.RequestStatusInProgress},
}

// UpdateWorkStatus moves an active assignment through accept/start/complete.
// Completing here does not record payment; the payment recorder owns the
// financial close and should run alongside this transition.
func (s *CoordinatorService) UpdateWorkStatus(ctx context.Context, requestID, employeeID string, action WorkAction) (*domain.Request, *domain.Assignment, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(employeeID) == "" {
		return nil, nil, apperrors.NewValidationError("request_id and employee_id required", nil)
	}
	allowedFrom, ok := workTransitions[action]
	if !ok {
		return nil, nil, apperrors.NewValidationError("action must be accept, start or complete", map[string]any{"action": action})
	}

	entry, err := s.assignments.GetActiveByRequestEmployee(ctx, requestID, employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("assignment", map[string]any{"request_id": requestID, "employee_id": employeeID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !statusIn(request.Status, allowedFrom) {
		return nil, nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"current": request.Status,
			"action":  action,
		})
	}

	before := *entry
	now := s.now()
	var newStatus domain.RequestStatus
	switch action {
	case WorkActionAccept:
		entry.Status = domain.AssignmentStatusAssigned
		entry.ExpiresAt = nil
		newStatus = domain.RequestStatusAssigned
	case WorkActionStart:
		entry.Status = domain.AssignmentStatusInProgress
		entry.StartedAt = &now
		newStatus = domain.RequestStatusInProgress
	case WorkActionComplete:
		entry.Status = domain.AssignmentStatusCompleted
		entry.CompletedAt = &now
		newStatus = domain.RequestStatusCompleted
	}
	if err := s.assignments.Update(ctx, entry); err != nil {
		return nil, nil, apperrors.NewPersistence("update assignment failed", err, map[string]any{"state": "unchanged"})
	}

	oldStatus, oldAssignee := request.Status, request.AssignedTo
	request.Status = newStatus
	if newStatus == domain.RequestStatusCompleted {
		request.AssignedTo = nil
	} else {
		request.AssignedTo = &entry.EmployeeID
	}
	if err := s.requests.Update(ctx, request); err != nil {
		s.revertAssignment(ctx, &before)
		request.Status, request.AssignedTo = oldStatus, oldAssignee
		return nil, nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
	}

	s.metrics.RecordOperation("update_work_status", "success")
	if action == WorkActionComplete {
		s.notifier.Fanout(ctx, FanoutInput{
			RequestID:       request.ID,
			Type:            domain.NotificationRequestCompleted,
			Priority:        domain.PriorityHigh,
			CustomerID:      request.CustomerID,
			CustomerTitle:   "Repair completed",
			CustomerMessage: fmt.Sprintf("Your %s repair request has been completed.", request.Category),
			AdminTitle:      "Request completed",
			AdminMessage:    fmt.Sprintf("Request %s was completed.", request.ExternalKey),
		})
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestCompleted,
			RequestID: request.ID,
			Payload: events.RequestCompletedPayload{
				EmployeeID:    entry.EmployeeID,
				CustomerEmail: request.CustomerEmail,
			},
		})
	} else {
		s.notifier.Fanout(ctx, FanoutInput{
			RequestID:       request.ID,
			Type:            domain.NotificationStatusUpdate,
			CustomerID:      request.CustomerID,
			CustomerTitle:   "Request update",
			CustomerMessage: fmt.Sprintf("Your repair request is now %s.", request.Status),
			AdminTitle:      "Status update",
			AdminMessage:    fmt.Sprintf("Request %s moved to %s.", request.ExternalKey, request.Status),
		})
		s.publishEvent(ctx, events.Event{
			Type:      events.EventStatusUpdated,
			RequestID: request.ID,
			Payload: events.StatusUpdatedPayload{
				OldStatus:     oldStatus,
				NewStatus:     request.Status,
				CustomerEmail: request.CustomerEmail,
			},
		})
	}
	return request, entry, nil
}

// ReportIssue handles an employee giving up on or pausing an assignment.
// Cancellation releases the employee and deletes the ledger entry; on-hold
// pauses the assignment with the employee still attached. Both append a
// status form.
func (s *CoordinatorService) ReportIssue(ctx context.Context, requestID, employeeID string, reason IssueReason, title, details string) (*domain.Request, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(employeeID) == "" {
		return nil, apperrors.NewValidationError("request_id and employee_id required", nil)
	}
	if reason != IssueCancelled && reason != IssueOnHold {
		return nil, apperrors.NewValidationError("reason must be cancelled or on_hold", map[string]any{"reason": reason})
	}

	entry, err := s.assignments.GetActiveByRequestEmployee(ctx, requestID, employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("assignment", map[string]any{"request_id": requestID, "employee_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if reason == IssueCancelled {
		if err := s.assignments.DeleteByID(ctx, entry.ID); err != nil {
			return nil, apperrors.NewPersistence("release assignment failed", err, map[string]any{"state": "unchanged"})
		}
		oldStatus, oldAssignee := request.Status, request.AssignedTo
		request.Status = domain.RequestStatusPending
		request.AssignedTo = nil
		if err := s.requests.Update(ctx, request); err != nil {
			s.restoreSnapshot(ctx, entry)
			request.Status, request.AssignedTo = oldStatus, oldAssignee
			return nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
		}
	} else {
		before := *entry
		entry.Status = domain.AssignmentStatusOnHold
		if err := s.assignments.Update(ctx, entry); err != nil {
			return nil, apperrors.NewPersistence("update assignment failed", err, map[string]any{"state": "unchanged"})
		}
		request.Status = domain.RequestStatusOnHold
		request.AssignedTo = &entry.EmployeeID
		if err := s.requests.Update(ctx, request); err != nil {
			s.revertAssignment(ctx, &before)
			return nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
		}
		s.appendStatusForm(ctx, request.ID, domain.SubjectTypeEmployee, employeeID, domain.StatusFormOnHold, title, details)
		s.fanoutIssue(ctx, request, employeeID, "Request on hold", title)
		return request, nil
	}

	s.appendStatusForm(ctx, request.ID, domain.SubjectTypeEmployee, employeeID, domain.StatusFormCancelled, title, details)
	s.fanoutIssue(ctx, request, employeeID, "Request needs reassignment", title)
	return request, nil
}

// AdminCancel terminates a request regardless of its current state. Any
// active ledger entry is removed and a cancellation form appended.
func (s *CoordinatorService) AdminCancel(ctx context.Context, adminID, requestID, title, reason, details string) (*domain.Request, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, apperrors.NewValidationError("request_id required", nil)
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}

	var previousEmployee *string
	prior, lookupErr := s.assignments.GetActiveByRequest(ctx, requestID)
	if lookupErr != nil {
		prior = nil
		if !apperrors.IsNotFound(lookupErr) {
			s.logger.Error("active assignment lookup failed; displaced employee will not be notified",
				zap.String("request_id", requestID), zap.Error(lookupErr))
		}
	} else {
		previousEmployee = &prior.EmployeeID
	}
	if _, err := s.assignments.DeleteActiveByRequest(ctx, requestID); err != nil {
		return nil, apperrors.NewPersistence("release assignment failed", err, map[string]any{"state": "unchanged"})
	}

	oldStatus, oldAssignee := request.Status, request.AssignedTo
	request.Status = domain.RequestStatusCancelled
	request.AssignedTo = nil
	if err := s.requests.Update(ctx, request); err != nil {
		s.restoreSnapshot(ctx, prior)
		request.Status, request.AssignedTo = oldStatus, oldAssignee
		return nil, apperrors.NewPersistence("update request failed", err, map[string]any{"state": "rollback attempted"})
	}

	s.appendStatusForm(ctx, request.ID, domain.SubjectTypeAdmin, adminID, domain.StatusFormAdminCancelled, title, details)
	s.metrics.RecordOperation("admin_cancel", "success")
	s.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationRequestCancelled,
		CustomerID:      request.CustomerID,
		CustomerTitle:   "Request cancelled",
		CustomerMessage: fmt.Sprintf("Your repair request was cancelled: %s", reason),
		AdminTitle:      "Request cancelled",
		AdminMessage:    fmt.Sprintf("Request %s cancelled: %s", request.ExternalKey, reason),
		EmployeeID:      previousEmployee,
		EmployeeTitle:   "Assignment cancelled",
		EmployeeMessage: fmt.Sprintf("Request %s was cancelled by an administrator.", request.ExternalKey),
	})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCancelled,
		RequestID: request.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeAdmin, AdminID: &adminID},
		Payload: events.RequestCancelledPayload{
			Reason:        reason,
			EmployeeID:    previousEmployee,
			CustomerEmail: request.CustomerEmail,
		},
	})
	return request, nil
}

func (s *CoordinatorService) fanoutIssue(ctx context.Context, request *domain.Request, employeeID, headline, title string) {
	s.metrics.RecordOperation("report_issue", "success")
	employeeRef := employeeID
	s.notifier.Fanout(ctx, FanoutInput{
		RequestID:       request.ID,
		Type:            domain.NotificationStatusUpdate,
		CustomerID:      request.CustomerID,
		CustomerTitle:   headline,
		CustomerMessage: fmt.Sprintf("Your repair request status changed to %s.", request.Status),
		AdminTitle:      headline,
		AdminMessage:    fmt.Sprintf("Request %s: %s (now %s).", request.ExternalKey, title, request.Status),
		EmployeeID:      &employeeRef,
		EmployeeTitle:   headline,
		EmployeeMessage: fmt.Sprintf("Your report for request %s was recorded.", request.ExternalKey),
	})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestOnHold,
		RequestID: request.ID,
		Payload: events.StatusUpdatedPayload{
			NewStatus:     request.Status,
			CustomerEmail: request.CustomerEmail,
		},
	})
}

func (s *CoordinatorService) appendStatusForm(ctx context.Context, requestID string, authorType domain.SubjectType, authorID string, formType domain.StatusFormType, title, details string) {
	form := &domain.StatusForm{
		RequestID:  requestID,
		AuthorType: authorType,
		AuthorID:   authorID,
		FormType:   formType,
		Title:      title,
		Details:    details,
	}
	if err := s.statusForms.Create(ctx, form); err != nil {
		s.logger.Error("status form write failed",
			zap.String("request_id", requestID),
			zap.String("form_type", string(formType)),
			zap.Error(err))
	}
}

// restoreSnapshot reinstates a previously deleted active ledger entry.
func (s *CoordinatorService) restoreSnapshot(ctx context.Context, prior *domain.Assignment) {
	if prior == nil {
		return
	}
	restored := *prior
	restored.ID = ""
	if err := s.assignments.Create(ctx, &restored); err != nil {
		s.logger.Error("restore of superseded assignment failed; ledger inconsistent",
			zap.String("request_id", prior.RequestID),
			zap.String("employee_id", prior.EmployeeID),
			zap.Error(err))
	}
}

func (s *CoordinatorService) revertAssignment(ctx context.Context, before *domain.Assignment) {
	if err := s.assignments.Update(ctx, before); err != nil {
		s.logger.Error("assignment revert failed; ledger inconsistent",
			zap.String("assignment_id", before.ID),
			zap.Error(err))
	}
}

func (s *CoordinatorService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func confirmationEventType(action ConfirmationAction) events.EventType {
	if action == ActionConfirm {
		return events.EventRequestAccepted
	}
	return events.EventRequestRejected
}

func statusIn(status domain.RequestStatus, allowed []domain.RequestStatus) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}
