package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/config"
)

// KafkaPublisher forwards reservation events to a Kafka topic, keyed by
// reservation id so events for one reservation stay ordered per partition.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher for the configured brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Handle serializes and publishes a single event.
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal reservation event", zap.Error(err))
		return err
	}

	msg := kafkago.Message{
		Key:   []byte(event.ReservationID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish reservation event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RegisterHandlers subscribes the publisher to all reservation events.
func (p *KafkaPublisher) RegisterHandlers(dispatcher Dispatcher) {
	dispatcher.Subscribe(EventReservationCreated, p.Handle)
	dispatcher.Subscribe(EventReservationUpdated, p.Handle)
	dispatcher.Subscribe(EventReservationDeleted, p.Handle)
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
