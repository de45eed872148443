// Package repo contains all database access logic for the JetJot API.
// Each store has an interface with a Postgres implementation (pgx) and an
// embedded SQLite implementation (sqlx). No business logic lives here, only
// SQL and type mapping.
package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/jetjot/internal/domain"
)

// db is satisfied by *pgxpool.Pool and pgx.Tx; tests pass a transaction that
// is rolled back when the test ends.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows, so one
// scan function serves QueryRow and Query on either driver.
type scanner interface {
	Scan(dest ...any) error
}

// isNoRows matches the empty-result error of both drivers.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// CredentialRepo stores login credentials keyed by normalized username.
type CredentialRepo interface {
	// Get returns the credential for a normalized username.
	// Returns domain.ErrNotFound if the username has never logged in.
	Get(ctx context.Context, username string) (domain.Credential, error)

	// Create inserts a new credential. created is false, with no error, when
	// the username already exists (a concurrent first login won the race).
	Create(ctx context.Context, c domain.Credential) (created bool, err error)

	// List returns one page of accounts ordered by username, each with the
	// number of sprints it owns, and the total number of accounts.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error)

	// SetDisabled and SetAdmin flip one flag.
	// Both return domain.ErrNotFound for an unknown username.
	SetDisabled(ctx context.Context, username string, disabled bool) error
	SetAdmin(ctx context.Context, username string, admin bool) error

	// Delete removes the credential. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, username string) error
}

// SprintRepo defines the persistence operations for sprint documents.
// Every write targets one (owner, id) document; per-day writes replace a
// single top-level key and never add keys that the document does not have.
type SprintRepo interface {
	// Get returns the full document. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, owner, id string) (domain.Sprint, error)

	// Create inserts s unless a document with the same owner and id exists.
	// created reports whether this call performed the insert.
	Create(ctx context.Context, s domain.Sprint) (created bool, err error)

	// Rename updates only the name column.
	Rename(ctx context.Context, owner, id, name string) error

	// ListByOwner returns every sprint of owner, newest first.
	ListByOwner(ctx context.Context, owner string) ([]domain.Sprint, error)

	// Delete removes one document. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, owner, id string) error

	// DeleteByOwner removes every document of owner and returns how many.
	DeleteByOwner(ctx context.Context, owner string) (int64, error)

	// ReplaceDay overwrites the todos of one existing day key.
	// Returns domain.ErrNotFound if the document or the key does not exist.
	ReplaceDay(ctx context.Context, owner, id, date string, todos []domain.Todo) error

	// ReplaceDays overwrites several existing day keys in one atomic write.
	// Returns domain.ErrNotFound if the document or any key does not exist.
	ReplaceDays(ctx context.Context, owner, id string, patch domain.Days) error

	// ReplaceDayLog overwrites the travel log entry of one day and returns the
	// whole travel log as stored after the write. The date must be one of the
	// document's day keys.
	ReplaceDayLog(ctx context.Context, owner, id, date string, day domain.DayLog) (domain.TravelLog, error)
}
