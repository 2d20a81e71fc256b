package domain

import "time"

// UserRole enumerates account roles.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

// User is the domain model for submitters, staff, and administrators.
type User struct {
	ID         string
	Name       string
	Email      string
	Role       UserRole
	Department string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanBeAssigned reports whether u may own complaints.
func (u *User) CanBeAssigned() bool {
	return u != nil && u.Active && (u.Role == RoleStaff || u.Role == RoleAdmin)
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}
