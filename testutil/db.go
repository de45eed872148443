// Package testutil opens migrated databases for tests. Postgres helpers read
// TEST_DATABASE_URL and skip the test when it is unset; SQLite helpers need
// nothing and always run.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/jetjot/internal/config"
	"github.com/pkordes/jetjot/internal/repo"
	"github.com/pkordes/jetjot/migrations"
)

// PostgresEnv names the variable holding the integration database DSN.
const PostgresEnv = "TEST_DATABASE_URL"

// NewPool returns a pool on the integration database, closed at test end.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := openPool(context.Background(), postgresDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle over a fresh pool on the
// integration database, for goose and other database/sql consumers.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(NewPool(t))
	t.Cleanup(func() { db.Close() })
	return db
}

// MigratePostgres applies every pending Postgres migration to dsn. TestMain
// functions call it before m.Run, where there is no *testing.T.
func MigratePostgres(ctx context.Context, dsn string) error {
	pool, err := openPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrate(ctx, config.DriverPostgres, db)
}

// NewSQLiteDB returns a private in-memory SQLite database with every
// migration applied, closed at test end.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repo.OpenSQLite(repo.MemoryDSN)
	if err != nil {
		t.Fatalf("testutil.NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrate(context.Background(), config.DriverSQLite, db.DB); err != nil {
		t.Fatalf("testutil.NewSQLiteDB: %v", err)
	}
	return db
}

func postgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skip(PostgresEnv + " not set; skipping Postgres integration test")
	}
	return dsn
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func migrate(ctx context.Context, driver string, db *sql.DB) error {
	dialect, fsys, err := migrations.ForDriver(driver)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}
	return nil
}
