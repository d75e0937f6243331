package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// SQLRepositoryManager serves repositories backed by a database/sql pool.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect string
	dir     string
	users   users.Repository
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := open(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{
		db:      db,
		dialect: "postgres",
		dir:     migrations.PostgresDir,
		users:   users.NewPostgresRepository(db),
	}, nil
}

// NewSQLiteRepositoryManager opens dsn with the pure-Go modernc driver.
// SQLite allows one writer at a time, so the pool is capped at a single
// connection.
func NewSQLiteRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLRepositoryManager{
		db:      db,
		dialect: "sqlite3",
		dir:     migrations.SQLiteDir,
		users:   users.NewSQLiteRepository(db),
	}, nil
}

func open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db open error: empty dsn for driver %s", driverName)
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func (m *SQLRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
