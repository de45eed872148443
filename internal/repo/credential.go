package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/jetjot/internal/domain"
)

// pgCredentialRepo is the Postgres implementation of CredentialRepo.
type pgCredentialRepo struct {
	db db
}

// NewCredentialRepo constructs a CredentialRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCredentialRepo(db db) CredentialRepo {
	return &pgCredentialRepo{db: db}
}

// Get retrieves a credential by username.
func (r *pgCredentialRepo) Get(ctx context.Context, username string) (domain.Credential, error) {
	const q = `
		SELECT username, password_hash, is_admin, disabled, created_at
		FROM users
		WHERE username = @username`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username})
	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("repo.CredentialRepo.Get: %w", err)
	}
	return c, nil
}

// Create inserts a credential; a username conflict is reported as created=false.
func (r *pgCredentialRepo) Create(ctx context.Context, c domain.Credential) (bool, error) {
	const q = `
		INSERT INTO users (username, password_hash, is_admin, disabled, created_at)
		VALUES (@username, @password_hash, @is_admin, @disabled, @created_at)
		ON CONFLICT (username) DO NOTHING`

	args := pgx.NamedArgs{
		"username":      c.Username,
		"password_hash": c.PasswordHash,
		"is_admin":      c.IsAdmin,
		"disabled":      c.Disabled,
		"created_at":    c.CreatedAt,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return false, fmt.Errorf("repo.CredentialRepo.Create: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns one page of accounts with their sprint counts.
func (r *pgCredentialRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.CredentialRepo.List: count: %w", err)
	}

	const q = `
		SELECT u.username, u.is_admin, u.disabled, u.created_at, COUNT(s.id)
		FROM users u
		LEFT JOIN sprints s ON s.owner = u.username
		GROUP BY u.username, u.is_admin, u.disabled, u.created_at
		ORDER BY u.username
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.CredentialRepo.List: %w", err)
	}
	defer rows.Close()

	users := []domain.UserSummary{}
	for rows.Next() {
		u, err := scanUserSummary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.CredentialRepo.List: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.CredentialRepo.List: rows: %w", err)
	}
	return users, total, nil
}

// SetDisabled flips the disabled flag.
func (r *pgCredentialRepo) SetDisabled(ctx context.Context, username string, disabled bool) error {
	const q = `UPDATE users SET disabled = @value WHERE username = @username`
	return r.execOne(ctx, "SetDisabled", q, pgx.NamedArgs{"username": username, "value": disabled})
}

// SetAdmin flips the admin flag.
func (r *pgCredentialRepo) SetAdmin(ctx context.Context, username string, admin bool) error {
	const q = `UPDATE users SET is_admin = @value WHERE username = @username`
	return r.execOne(ctx, "SetAdmin", q, pgx.NamedArgs{"username": username, "value": admin})
}

// Delete removes a credential.
func (r *pgCredentialRepo) Delete(ctx context.Context, username string) error {
	const q = `DELETE FROM users WHERE username = @username`
	return r.execOne(ctx, "Delete", q, pgx.NamedArgs{"username": username})
}

// execOne runs a statement that must touch exactly one user row.
func (r *pgCredentialRepo) execOne(ctx context.Context, method, q string, args pgx.NamedArgs) error {
	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.CredentialRepo.%s: %w", method, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CredentialRepo.%s: %w", method, domain.ErrNotFound)
	}
	return nil
}

// scanCredential maps a users row into a domain.Credential.
func scanCredential(s scanner) (domain.Credential, error) {
	var c domain.Credential
	err := s.Scan(&c.Username, &c.PasswordHash, &c.IsAdmin, &c.Disabled, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return c, nil
}

func scanUserSummary(s scanner) (domain.UserSummary, error) {
	var u domain.UserSummary
	err := s.Scan(&u.Username, &u.IsAdmin, &u.Disabled, &u.CreatedAt, &u.SprintCount)
	return u, err
}
