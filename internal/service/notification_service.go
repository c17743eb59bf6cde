package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/events"
)

// NotificationService logs reservation lifecycle events for operators.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReservationCreated, n.handleReservationCreated)
	n.dispatcher.Subscribe(events.EventReservationUpdated, n.handleReservationUpdated)
	n.dispatcher.Subscribe(events.EventReservationDeleted, n.handleReservationDeleted)
}

func (n *NotificationService) handleReservationCreated(_ context.Context, event events.Event) error {
	n.logger.Info("ReservationCreated",
		zap.String("reservation_id", event.ReservationID),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleReservationUpdated(_ context.Context, event events.Event) error {
	n.logger.Info("ReservationUpdated",
		zap.String("reservation_id", event.ReservationID),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleReservationDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("ReservationDeleted",
		zap.String("reservation_id", event.ReservationID),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	return nil
}
