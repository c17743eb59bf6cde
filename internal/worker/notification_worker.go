package worker

import (
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/service"
)

// StartNotificationWorker registers event handlers: operator-facing log
// notifications always, Kafka forwarding when a publisher is configured.
func StartNotificationWorker(notifications *service.NotificationService, publisher *events.KafkaPublisher, dispatcher events.Dispatcher) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if publisher != nil && dispatcher != nil {
		publisher.RegisterHandlers(dispatcher)
	}
}
