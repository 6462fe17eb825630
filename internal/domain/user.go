package domain

import "time"

// Role enumerates the account roles. Checks against roles are exact: no role
// inherits another's capabilities.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known set.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for any account: citizens, staff and admins are
// distinguished only by role.
type User struct {
	ID           string
	Name         string
	Email        string
	PhotoURL     string
	Role         Role
	Premium      bool
	Blocked      bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
