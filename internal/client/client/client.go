package client

import (
	"context"
	"time"
)

// User is the account as returned by the register endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// Identity is what the server knows about the caller of an authenticated
// request.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Client interface {
	Register(ctx context.Context, email string, password []byte) (*User, error)
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	Me(ctx context.Context, token string) (*Identity, error)
}
