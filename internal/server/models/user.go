package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorisation roles a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ErrUnknownRole is returned by ParseRole for anything outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps s onto a known Role. Matching is exact; there is no default.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is a stored credential. Email is the unique identifier.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity returns the authenticated view of u.
func (u *User) Identity() Identity {
	return Identity{Email: u.Email, Role: u.Role}
}

// Identity is the {identifier, role} pair attached to an authenticated
// request. It is rebuilt from the token on every request and never stored.
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NormalizeEmail trims and lower-cases an identifier so lookups and the
// uniqueness constraint agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
