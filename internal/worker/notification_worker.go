package worker

import (
	"github.com/spec-kit/kiosk-service/internal/events"
	"github.com/spec-kit/kiosk-service/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a stream
// forwarder is configured, mirrors every ticket event onto it.
func StartNotificationWorker(notificationService *service.NotificationService, forwarder *events.StreamForwarder, dispatcher events.Dispatcher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if forwarder != nil && dispatcher != nil {
		forwarder.Register(dispatcher)
	}
}
