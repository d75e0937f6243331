// Package token issues and verifies the signed bearer tokens handed out at
// login. Tokens are HS512 JWTs carrying the subject email, the role and the
// issue/expiry timestamps. Nothing about an issued token is kept server side.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	MinSecretLength = 32
	DefaultTTL      = time.Hour
)

// Claims is the payload of a token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Config is fixed at startup and handed to NewCodec.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token: secret must be at least %d bytes, got %d", MinSecretLength, len(cfg.Secret))
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < time.Second {
		return nil, fmt.Errorf("token: ttl must be at least one second, got %s", ttl)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(),
	}, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// ExpiresAt returns the expiry carried by a token issued at now.
func (c *Codec) ExpiresAt(now time.Time) time.Time {
	return now.Truncate(time.Second).Add(c.ttl).Truncate(time.Second)
}

// Issue signs a token for id. Timestamps are truncated to whole seconds,
// the precision they have on the wire, so a token issued at a fractional
// second expires up to one second before now+TTL (see ExpiresAt).
func (c *Codec) Issue(id models.Identity, now time.Time) (string, error) {
	if id.Email == "" {
		return "", fmt.Errorf("token: issue: empty subject")
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("token: issue: %w", models.ErrUnknownRole)
	}

	iat := now.Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt(now)),
		},
		Role: string(id.Role),
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return s, nil
}

// Verify checks raw against the secret and the clock and returns the
// identity it carries. Errors are one of ErrMalformed, ErrBadSignature,
// ErrExpired or ErrMissingClaims (ErrUnknownRole included).
func (c *Codec) Verify(raw string, now time.Time) (models.Identity, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return models.Identity{}, ErrMalformed
	}

	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: signature segment: %w", ErrMalformed, err)
	}

	// The signature is checked over the raw text before anything in the
	// header or payload is decoded.
	if err := jwt.SigningMethodHS512.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return models.Identity{}, ErrBadSignature
	}

	claims := &Claims{}
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if _, err := p.ParseWithClaims(raw, claims, c.key); err != nil {
		return models.Identity{}, classify(err)
	}

	if claims.Subject == "" {
		return models.Identity{}, fmt.Errorf("%w: sub", ErrMissingClaims)
	}
	if claims.Role == "" {
		return models.Identity{}, fmt.Errorf("%w: role", ErrMissingClaims)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return models.Identity{Email: claims.Subject, Role: role}, nil
}

func (c *Codec) key(*jwt.Token) (any, error) {
	return c.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: exp", ErrMissingClaims)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrBadSignature
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
