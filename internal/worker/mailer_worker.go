package worker

import (
	"github.com/fixflow/repair-service/internal/events"
	"github.com/fixflow/repair-service/internal/mailer"
)

// StartMailerWorker registers email handlers on the dispatcher.
func StartMailerWorker(m *mailer.Mailer, dispatcher events.Dispatcher) {
	if m == nil {
		return
	}
	m.RegisterHandlers(dispatcher)
}
