package domain

import "time"

// Resource is a bookable entity such as a room or a piece of equipment.
type Resource struct {
	ID          string
	Name        string
	Type        string
	Description string
	Capacity    int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
