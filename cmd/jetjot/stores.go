package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/jetjot/internal/config"
	"github.com/pkordes/jetjot/internal/repo"
	"github.com/pkordes/jetjot/migrations"
)

// stores holds the repositories for the configured driver plus a
// database/sql handle for goose.
type stores struct {
	creds   repo.CredentialRepo
	sprints repo.SprintRepo
	sqlDB   *sql.DB
	close   func()
}

// openStores connects to the database named by cfg.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := repo.OpenSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store opened", "path", cfg.DatabaseURL)
		return &stores{
			creds:   repo.NewSQLiteCredentialRepo(db),
			sprints: repo.NewSQLiteSprintRepo(db),
			sqlDB:   db.DB,
			close:   func() { db.Close() },
		}, nil

	default:
		// pgxpool.New does not open connections immediately; Ping does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("database connection established")
		sqlDB := stdlib.OpenDBFromPool(pool)
		return &stores{
			creds:   repo.NewCredentialRepo(pool),
			sprints: repo.NewSprintRepo(pool),
			sqlDB:   sqlDB,
			close: func() {
				sqlDB.Close()
				pool.Close()
			},
		}, nil
	}
}

// migrator returns a goose provider for the configured driver.
func (s *stores) migrator(cfg config.Config) (*goose.Provider, error) {
	dialect, fsys, err := migrations.ForDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, s.sqlDB, fsys)
}
