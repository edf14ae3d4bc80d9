package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/fixflow/repair-service/internal/config"
	"github.com/fixflow/repair-service/internal/events"
)

// EmailBridge delivers a single outbound email. Implementations are expected
// to be safe for concurrent use.
type EmailBridge interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogBridge writes outbound mail to the log instead of the wire. It is the
// default when no SMTP relay is configured.
type LogBridge struct {
	logger *zap.Logger
	from   string
}

// NewLogBridge creates the logging bridge.
func NewLogBridge(cfg config.NotificationConfig, logger *zap.Logger) *LogBridge {
	return &LogBridge{logger: logger, from: cfg.EmailFrom}
}

func (b *LogBridge) Send(_ context.Context, to, subject, body string) error {
	b.logger.Info("outbound email",
		zap.String("from", b.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// Mailer turns lifecycle events into customer emails. Delivery failures are
// logged and never surfaced to the publishing operation.
type Mailer struct {
	bridge  EmailBridge
	logger  *zap.Logger
	enabled bool
}

// NewMailer creates the mailer.
func NewMailer(cfg config.NotificationConfig, bridge EmailBridge, logger *zap.Logger) *Mailer {
	return &Mailer{bridge: bridge, logger: logger, enabled: cfg.EmailEnabled}
}

// RegisterHandlers subscribes the mailer to lifecycle events.
func (m *Mailer) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventRequestCreated, m.onRequestCreated)
	dispatcher.Subscribe(events.EventEngineerAssigned, m.onEngineerAssigned)
	dispatcher.Subscribe(events.EventRequestAccepted, m.onConfirmationDecided)
	dispatcher.Subscribe(events.EventRequestRejected, m.onConfirmationDecided)
	dispatcher.Subscribe(events.EventRequestCompleted, m.onRequestCompleted)
	dispatcher.Subscribe(events.EventRequestCancelled, m.onRequestCancelled)
}

func (m *Mailer) onRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCreatedPayload)
	if !ok {
		return nil
	}
	return m.deliver(ctx, event, payload.CustomerEmail,
		"We received your repair request",
		"Your "+payload.Category+" repair request has been received and will be assigned to an engineer shortly.")
}

func (m *Mailer) onEngineerAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EngineerAssignedPayload)
	if !ok {
		return nil
	}
	body := "An engineer has been assigned to your repair request."
	if payload.RequiresConfirmation {
		body = "An engineer has been proposed for your repair request and is confirming availability."
	}
	return m.deliver(ctx, event, payload.CustomerEmail, "Engineer assigned", body)
}

func (m *Mailer) onConfirmationDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConfirmationDecidedPayload)
	if !ok {
		return nil
	}
	if payload.Accepted {
		return m.deliver(ctx, event, payload.CustomerEmail,
			"Engineer confirmed",
			"Your engineer confirmed the assignment and will start work on your repair.")
	}
	return m.deliver(ctx, event, payload.CustomerEmail,
		"Assignment update",
		"The proposed engineer was unavailable; your request is being reassigned.")
}

func (m *Mailer) onRequestCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCompletedPayload)
	if !ok {
		return nil
	}
	return m.deliver(ctx, event, payload.CustomerEmail,
		"Repair completed",
		"Your repair has been completed. Thank you for choosing us.")
}

func (m *Mailer) onRequestCancelled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCancelledPayload)
	if !ok {
		return nil
	}
	body := "Your repair request has been cancelled."
	if payload.Reason != "" {
		body += " Reason: " + payload.Reason
	}
	return m.deliver(ctx, event, payload.CustomerEmail, "Request cancelled", body)
}

func (m *Mailer) deliver(ctx context.Context, event events.Event, to, subject, body string) error {
	if !m.enabled || to == "" {
		return nil
	}
	if err := m.bridge.Send(ctx, to, subject, body); err != nil {
		m.logger.Error("email delivery failed",
			zap.String("event_id", event.ID),
			zap.String("request_id", event.RequestID),
			zap.String("to", to),
			zap.Error(err))
	}
	return nil
}
