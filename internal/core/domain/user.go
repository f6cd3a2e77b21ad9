package domain

import (
	"errors"
	"time"
)

// Role is the closed set of mutually exclusive user roles. The original
// deployment modelled roles as independent boolean flags, which permitted
// inconsistent combinations; a single enum rules those states out.
type Role string

const (
	RolePatron         Role = "patron"
	RoleLibrarian      Role = "librarian"
	RoleAdministration Role = "administration"
	RoleAdmin          Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatron, RoleLibrarian, RoleAdministration, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to library staff.
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdministration || r == RoleAdmin
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User models an authenticated actor. Accounts are never deleted, only
// deactivated.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Profession   string    `json:"profession,omitempty"`
	Institution  string    `json:"institution,omitempty"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the display name used in notification messages.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}
