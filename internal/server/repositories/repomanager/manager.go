// Package repomanager opens the configured credential store and runs its
// schema migrations with goose.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
)

// Storage drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	Users() users.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}

// Open returns a manager for driver. dsn is ignored by the memory driver.
func Open(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryRepositoryManager(), nil
	case DriverPostgres:
		return NewPostgresRepositoryManager(ctx, dsn)
	case DriverSQLite:
		return NewSQLiteRepositoryManager(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
