package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/pkordes/jetjot/internal/domain"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// OpenSQLite opens (or creates) the SQLite database at path with foreign keys
// and a busy timeout on every connection. File databases use WAL mode.
// An in-memory database is pinned to one connection, since each connection
// would otherwise see its own empty database.
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != MemoryDSN {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
	}
	if path == MemoryDSN {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: ping: %w", err)
	}
	return db, nil
}

// ---- credentials -----------------------------------------------------------

// sqliteCredentialRepo is the SQLite implementation of CredentialRepo.
type sqliteCredentialRepo struct {
	db *sqlx.DB
}

// NewSQLiteCredentialRepo constructs a CredentialRepo backed by SQLite.
func NewSQLiteCredentialRepo(db *sqlx.DB) CredentialRepo {
	return &sqliteCredentialRepo{db: db}
}

func (r *sqliteCredentialRepo) Get(ctx context.Context, username string) (domain.Credential, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT username, password_hash, is_admin, disabled, created_at
		FROM users WHERE username = ?`, username)
	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("repo.CredentialRepo.Get: %w", err)
	}
	return c, nil
}

func (r *sqliteCredentialRepo) Create(ctx context.Context, c domain.Credential) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, is_admin, disabled, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`,
		c.Username, c.PasswordHash, c.IsAdmin, c.Disabled, c.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("repo.CredentialRepo.Create: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *sqliteCredentialRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("repo.CredentialRepo.List: count: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT u.username, u.is_admin, u.disabled, u.created_at, COUNT(s.id)
		FROM users u
		LEFT JOIN sprints s ON s.owner = u.username
		GROUP BY u.username
		ORDER BY u.username
		LIMIT ? OFFSET ?`, p.Limit, p.Offset())
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

func (r *sqliteCredentialRepo) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return r.execOne(ctx, "SetDisabled", `UPDATE users SET disabled = ? WHERE username = ?`, disabled, username)
}

func (r *sqliteCredentialRepo) SetAdmin(ctx context.Context, username string, admin bool) error {
	return r.execOne(ctx, "SetAdmin", `UPDATE users SET is_admin = ? WHERE username = ?`, admin, username)
}

func (r *sqliteCredentialRepo) Delete(ctx context.Context, username string) error {
	return r.execOne(ctx, "Delete", `DELETE FROM users WHERE username = ?`, username)
}

func (r *sqliteCredentialRepo) execOne(ctx context.Context, method, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("repo.CredentialRepo.%s: %w", method, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repo.CredentialRepo.%s: %w", method, domain.ErrNotFound)
	}
	return nil
}

// ---- sprints ---------------------------------------------------------------

// sqliteSprintRepo is the SQLite implementation of SprintRepo.
// days and travel_log are TEXT columns holding JSON. Every per-key write is a
// read-modify-write inside one transaction.
type sqliteSprintRepo struct {
	db *sqlx.DB
}

// NewSQLiteSprintRepo constructs a SprintRepo backed by SQLite.
func NewSQLiteSprintRepo(db *sqlx.DB) SprintRepo {
	return &sqliteSprintRepo{db: db}
}

// sqliteSprintRow mirrors one sprints row; dates are stored as day keys.
type sqliteSprintRow struct {
	Owner     string    `db:"owner"`
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate string    `db:"start_date"`
	EndDate   string    `db:"end_date"`
	Days      string    `db:"days"`
	TravelLog string    `db:"travel_log"`
	CreatedAt time.Time `db:"created_at"`
}

func (row sqliteSprintRow) toDomain() (domain.Sprint, error) {
	start, err := domain.ParseDateKey(row.StartDate)
	if err != nil {
		return domain.Sprint{}, err
	}
	end, err := domain.ParseDateKey(row.EndDate)
	if err != nil {
		return domain.Sprint{}, err
	}
	sp := domain.Sprint{
		Owner:     row.Owner,
		ID:        row.ID,
		Name:      row.Name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: row.CreatedAt,
	}
	if err := decodeDocument(&sp, []byte(row.Days), []byte(row.TravelLog)); err != nil {
		return domain.Sprint{}, err
	}
	return sp, nil
}

func (r *sqliteSprintRepo) Get(ctx context.Context, owner, id string) (domain.Sprint, error) {
	sp, err := getSQLiteSprint(ctx, r.db, owner, id)
	if err != nil {
		return domain.Sprint{}, fmt.Errorf("repo.SprintRepo.Get: %w", err)
	}
	return sp, nil
}

func (r *sqliteSprintRepo) Create(ctx context.Context, s domain.Sprint) (bool, error) {
	days, err := json.Marshal(s.Days)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: marshal days: %w", err)
	}
	travel, err := json.Marshal(s.TravelLog)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: marshal travel log: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sprints (owner, id, name, start_date, end_date, days, travel_log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, id) DO NOTHING`,
		s.Owner, s.ID, s.Name, domain.DateKey(s.StartDate), domain.DateKey(s.EndDate),
		string(days), string(travel), s.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *sqliteSprintRepo) Rename(ctx context.Context, owner, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sprints SET name = ? WHERE owner = ? AND id = ?`, name, owner, id)
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.Rename: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repo.SprintRepo.Rename: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *sqliteSprintRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Sprint, error) {
	var rows []sqliteSprintRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+sprintColumns+` FROM sprints WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ListByOwner: %w", err)
	}

	sprints := make([]domain.Sprint, 0, len(rows))
	for _, row := range rows {
		sp, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("repo.SprintRepo.ListByOwner: %w", err)
		}
		sprints = append(sprints, sp)
	}
	sortNewestFirst(sprints)
	return sprints, nil
}

func (r *sqliteSprintRepo) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sprints WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repo.SprintRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *sqliteSprintRepo) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sprints WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("repo.SprintRepo.DeleteByOwner: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *sqliteSprintRepo) ReplaceDay(ctx context.Context, owner, id, date string, todos []domain.Todo) error {
	if todos == nil {
		todos = []domain.Todo{}
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.writeDays(ctx, tx, owner, id, domain.Days{date: todos})
	})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDay: %w", err)
	}
	return nil
}

func (r *sqliteSprintRepo) ReplaceDays(ctx context.Context, owner, id string, patch domain.Days) error {
	if len(patch) == 0 {
		return nil
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.writeDays(ctx, tx, owner, id, patch)
	})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDays: %w", err)
	}
	return nil
}

func (r *sqliteSprintRepo) ReplaceDayLog(ctx context.Context, owner, id, date string, day domain.DayLog) (domain.TravelLog, error) {
	if day.Locations == nil {
		day.Locations = []domain.Location{}
	}
	var stored domain.TravelLog
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		sp, err := getSQLiteSprint(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if !sp.HasDay(date) {
			return fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
		}
		stored = sp.TravelLog.With(date, day)
		body, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE sprints SET travel_log = ? WHERE owner = ? AND id = ?`, string(body), owner, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ReplaceDayLog: %w", err)
	}
	return stored, nil
}

// writeDays applies patch to the stored days inside tx, refusing unknown keys.
func (r *sqliteSprintRepo) writeDays(ctx context.Context, tx *sqlx.Tx, owner, id string, patch domain.Days) error {
	sp, err := getSQLiteSprint(ctx, tx, owner, id)
	if err != nil {
		return err
	}
	for date := range patch {
		if !sp.HasDay(date) {
			return fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
		}
	}
	body, err := json.Marshal(sp.Days.Merge(patch))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE sprints SET days = ? WHERE owner = ? AND id = ?`, string(body), owner, id)
	return err
}

func (r *sqliteSprintRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// getSQLiteSprint reads one document through db or a transaction.
func getSQLiteSprint(ctx context.Context, q sqlx.QueryerContext, owner, id string) (domain.Sprint, error) {
	var row sqliteSprintRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+sprintColumns+` FROM sprints WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		if isNoRows(err) {
			return domain.Sprint{}, domain.ErrNotFound
		}
		return domain.Sprint{}, err
	}
	return row.toDomain()
}
