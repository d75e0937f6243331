// Package users stores credentials. Every implementation keeps email
// addresses unique and inserts atomically: InsertIfAbsent never splits the
// existence check from the write.
package users

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type Repository interface {
	// FindByEmail returns common.ErrorNotFound when no user has email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// InsertIfAbsent stores u unless its email is taken and reports whether
	// it did.
	InsertIfAbsent(ctx context.Context, u *models.User) (bool, error)
}
