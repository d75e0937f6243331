package token

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed     = errors.New("token: malformed")
	ErrBadSignature  = errors.New("token: signature mismatch")
	ErrExpired       = errors.New("token: expired")
	ErrMissingClaims = errors.New("token: missing claims")

	// ErrUnknownRole is a MissingClaims kind: the role claim is present but
	// not one the service knows.
	ErrUnknownRole = fmt.Errorf("%w: unknown role", ErrMissingClaims)
)
