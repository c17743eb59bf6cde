package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReservationCreated EventType = "reservation_created"
	EventReservationUpdated EventType = "reservation_updated"
	EventReservationDeleted EventType = "reservation_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ReservationID string      `json:"reservation_id"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// ReservationCreatedPayload payload.
type ReservationCreatedPayload struct {
	ResourceID string                   `json:"resource_id"`
	Price      decimal.Decimal          `json:"price"`
	StartTime  time.Time                `json:"start_time"`
	EndTime    time.Time                `json:"end_time"`
	Status     domain.ReservationStatus `json:"status"`
}

// ReservationUpdatedPayload payload.
type ReservationUpdatedPayload struct {
	OldStatus domain.ReservationStatus `json:"old_status"`
	NewStatus domain.ReservationStatus `json:"new_status"`
	StartTime time.Time                `json:"start_time"`
	EndTime   time.Time                `json:"end_time"`
}

// ReservationDeletedPayload payload.
type ReservationDeletedPayload struct {
	ResourceID string                   `json:"resource_id"`
	Status     domain.ReservationStatus `json:"status"`
}
