package gate

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type ctxKey struct{}

var identityKey = ctxKey{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, &id)
}

// WithoutIdentity shadows any identity an outer context carries.
func WithoutIdentity(ctx context.Context) context.Context {
	if ctx.Value(identityKey) == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, (*models.Identity)(nil))
}

// IdentityFromContext returns the identity the gate attached, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	if id == nil {
		return models.Identity{}, false
	}
	return *id, true
}
