// Package common defines shared constants and sentinel errors used across
// the server and client layers of Gatekeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential errors. Login and registration surface these to the caller,
	// so "not found" and "wrong password" share ErrInvalidCredentials.
	ErrDuplicateIdentifier = errors.New("identifier already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	// Input validation errors.
	ErrValidation = errors.New("validation error")
)
