package dto

import "time"

// ResourceRequest payload for create/update.
type ResourceRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	Active      bool   `json:"active"`
}

// ResourceResponse response.
type ResourceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
