package domain

import "time"

// Role enumerates privilege levels for account holders.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// User is the domain model for account holders who book resources.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds elevated privilege.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
