package repository

import "errors"

// ErrOverlap is returned when a write would collide with an existing
// CONFIRMED reservation on the same resource.
var ErrOverlap = errors.New("time range overlaps with an existing CONFIRMED reservation")
