package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleUser    Role = "USER"
	RoleSupport Role = "SUPPORT"
	RoleAdmin   Role = "ADMIN"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may work tickets (assignment eligible).
func (r Role) IsStaff() bool {
	return r == RoleSupport || r == RoleAdmin
}

// User is the domain model for every account. Requesters, support staff
// and administrators are distinguished only by Role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
