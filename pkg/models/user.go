// Package models defines the data structures used throughout the application
package models

// UserRole represents the privilege level of a registered account
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleAdmin     UserRole = "ADMIN"
	RoleMainAdmin UserRole = "MAIN_ADMIN"
)

// ValidRole reports whether the given role is one of the known roles
func ValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleMainAdmin:
		return true
	}
	return false
}

// User represents a registered account. Accounts are unique by id and by
// email (case-insensitive) and are never deleted in-session.
type User struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
	Avatar string   `json:"avatar,omitempty"`
}

// IsAdmin reports whether the user can reach the admin surface
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleMainAdmin
}
