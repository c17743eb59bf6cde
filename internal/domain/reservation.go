package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus enumerates lifecycle states for reservations.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

var reservationStatuses = map[ReservationStatus]struct{}{
	ReservationStatusPending:   {},
	ReservationStatusConfirmed: {},
	ReservationStatusCancelled: {},
}

// IsValid reports whether the status is a recognized reservation status.
func (s ReservationStatus) IsValid() bool {
	_, ok := reservationStatuses[s]
	return ok
}

// ParseReservationStatus converts a string to a ReservationStatus.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	status := ReservationStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", raw)
	}
	return status, nil
}

// Reservation is the aggregate for time-ranged bookings of a resource.
type Reservation struct {
	ID           string
	ResourceID   string
	ResourceName string
	UserID       string
	Username     string
	Price        decimal.Decimal
	StartTime    time.Time
	EndTime      time.Time
	Status       ReservationStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Overlaps reports whether the reservation's [StartTime, EndTime) range
// intersects the given half-open range. Touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// OwnedBy reports whether the reservation belongs to the given username.
func (r *Reservation) OwnedBy(username string) bool {
	return r.Username == username
}
