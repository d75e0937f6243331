// Package gate decides per request whether a caller may proceed. Public
// paths are forwarded without an identity. Every other request must carry a
// valid bearer token; the identity it resolves to is attached to the
// request context. Anything else is rejected.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

var (
	ErrUnauthorized = common.ErrorUnauthorized
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// Verifier resolves a raw token to an identity. *token.Codec satisfies it.
type Verifier interface {
	Verify(raw string, now time.Time) (models.Identity, error)
}

type Gate struct {
	verifier Verifier
	policy   Policy
	log      logging.Logger
	now      func() time.Time
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gate) { g.log = l }
}

func New(v Verifier, p Policy, opts ...Option) *Gate {
	g := &Gate{
		verifier: v,
		policy:   p,
		log:      logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gate) Policy() Policy {
	return g.policy
}

// Authenticate runs the gate for one request. authorization is the raw
// value of the Authorization header (or its metadata equivalent). The
// returned context never carries an identity from ctx; on success it carries
// the identity from the token.
func (g *Gate) Authenticate(ctx context.Context, path, authorization string) (context.Context, error) {
	ctx = WithoutIdentity(ctx)

	if g.policy.IsPublic(path) {
		return ctx, nil
	}

	raw, ok := BearerToken(authorization)
	if !ok {
		return ctx, ErrMissingToken
	}

	id, err := g.verify(raw)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return WithIdentity(ctx, id), nil
}

func (g *Gate) verify(raw string) (id models.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			id = models.Identity{}
			err = fmt.Errorf("verifier panic: %v", r)
		}
	}()
	return g.verifier.Verify(raw, g.now())
}

// Reason returns a short label for a rejection, for logs only.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unauthorized"
	}
}

// BearerToken extracts the credentials from an "Authorization: Bearer x"
// value. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	tok := strings.TrimSpace(rest)
	if tok == "" {
		return "", false
	}
	return tok, true
}
