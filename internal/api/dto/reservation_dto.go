package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/booking-service/internal/domain"
)

// CreateReservationRequest payload. Timestamps are ISO-8601 strings.
type CreateReservationRequest struct {
	ResourceID string          `json:"resource_id"`
	Price      decimal.Decimal `json:"price"`
	StartTime  string          `json:"start_time"`
	EndTime    string          `json:"end_time"`
	Status     *string         `json:"status,omitempty"`
}

// UpdateReservationRequest payload; absent fields are left unchanged.
type UpdateReservationRequest struct {
	Price     *decimal.Decimal `json:"price,omitempty"`
	StartTime *string          `json:"start_time,omitempty"`
	EndTime   *string          `json:"end_time,omitempty"`
	Status    *string          `json:"status,omitempty"`
}

// ReservationResponse response.
type ReservationResponse struct {
	ID           string                   `json:"id"`
	ResourceID   string                   `json:"resource_id"`
	ResourceName string                   `json:"resource_name"`
	UserID       string                   `json:"user_id"`
	Username     string                   `json:"username"`
	Price        decimal.Decimal          `json:"price"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      time.Time                `json:"end_time"`
	Status       domain.ReservationStatus `json:"status"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// ReservationPageResponse wraps one page of reservations with pagination
// metadata for display-layer controls.
type ReservationPageResponse struct {
	Items         []ReservationResponse `json:"items"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	TotalElements int64                 `json:"total_elements"`
	TotalPages    int                   `json:"total_pages"`
}
