package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/jetjot/internal/domain"
)

// pgSprintRepo is the Postgres implementation of SprintRepo.
// days and travel_log are JSONB columns; per-day writes use jsonb_set and the
// multi-key write uses the || operator, so each is a single statement.
type pgSprintRepo struct {
	db db
}

// NewSprintRepo constructs a SprintRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSprintRepo(db db) SprintRepo {
	return &pgSprintRepo{db: db}
}

const sprintColumns = `owner, id, name, start_date, end_date, days, travel_log, created_at`

// Get retrieves one sprint document.
func (r *pgSprintRepo) Get(ctx context.Context, owner, id string) (domain.Sprint, error) {
	q := `SELECT ` + sprintColumns + ` FROM sprints WHERE owner = @owner AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner": owner, "id": id})
	s, err := scanPgSprint(row)
	if err != nil {
		return domain.Sprint{}, fmt.Errorf("repo.SprintRepo.Get: %w", err)
	}
	return s, nil
}

// Create inserts the seeded document. ON CONFLICT DO NOTHING makes repeated
// and concurrent creation of the same range perform at most one insert.
func (r *pgSprintRepo) Create(ctx context.Context, s domain.Sprint) (bool, error) {
	const q = `
		INSERT INTO sprints (owner, id, name, start_date, end_date, days, travel_log, created_at)
		VALUES (@owner, @id, @name, @start_date, @end_date, @days::jsonb, @travel_log::jsonb, @created_at)
		ON CONFLICT (owner, id) DO NOTHING`

	days, err := json.Marshal(s.Days)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: marshal days: %w", err)
	}
	travel, err := json.Marshal(s.TravelLog)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: marshal travel log: %w", err)
	}

	args := pgx.NamedArgs{
		"owner":      s.Owner,
		"id":         s.ID,
		"name":       s.Name,
		"start_date": s.StartDate,
		"end_date":   s.EndDate,
		"days":       string(days),
		"travel_log": string(travel),
		"created_at": s.CreatedAt,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return false, fmt.Errorf("repo.SprintRepo.Create: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Rename updates the name column only.
func (r *pgSprintRepo) Rename(ctx context.Context, owner, id, name string) error {
	const q = `UPDATE sprints SET name = @name WHERE owner = @owner AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"owner": owner, "id": id, "name": name})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.Rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SprintRepo.Rename: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByOwner returns every sprint of owner, newest first.
func (r *pgSprintRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Sprint, error) {
	q := `SELECT ` + sprintColumns + ` FROM sprints WHERE owner = @owner ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	sprints := []domain.Sprint{}
	for rows.Next() {
		s, err := scanPgSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SprintRepo.ListByOwner: scan: %w", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ListByOwner: rows: %w", err)
	}
	return sprints, nil
}

// Delete removes one document.
func (r *pgSprintRepo) Delete(ctx context.Context, owner, id string) error {
	const q = `DELETE FROM sprints WHERE owner = @owner AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"owner": owner, "id": id})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SprintRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteByOwner removes every document of owner.
func (r *pgSprintRepo) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sprints WHERE owner = @owner`, pgx.NamedArgs{"owner": owner})
	if err != nil {
		return 0, fmt.Errorf("repo.SprintRepo.DeleteByOwner: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceDay overwrites one day key. The `days ? @date` guard refuses keys
// the document does not already have.
func (r *pgSprintRepo) ReplaceDay(ctx context.Context, owner, id, date string, todos []domain.Todo) error {
	const q = `
		UPDATE sprints
		SET days = jsonb_set(days, ARRAY[@date::text], @todos::jsonb)
		WHERE owner = @owner AND id = @id AND days ? @date::text`

	if todos == nil {
		todos = []domain.Todo{}
	}
	body, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDay: marshal: %w", err)
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"owner": owner, "id": id, "date": date, "todos": string(body)})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDay: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SprintRepo.ReplaceDay: day %s: %w", date, domain.ErrNotFound)
	}
	return nil
}

// ReplaceDays merges patch into days in one statement. The ?& guard requires
// every patched key to exist already.
func (r *pgSprintRepo) ReplaceDays(ctx context.Context, owner, id string, patch domain.Days) error {
	if len(patch) == 0 {
		return nil
	}
	const q = `
		UPDATE sprints
		SET days = days || @patch::jsonb
		WHERE owner = @owner AND id = @id AND days ?& @keys::text[]`

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDays: marshal: %w", err)
	}
	keys := patch.Keys()

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"owner": owner, "id": id, "patch": string(body), "keys": keys})
	if err != nil {
		return fmt.Errorf("repo.SprintRepo.ReplaceDays: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SprintRepo.ReplaceDays: %w", domain.ErrNotFound)
	}
	return nil
}

// ReplaceDayLog overwrites one travel log entry and returns the stored map.
func (r *pgSprintRepo) ReplaceDayLog(ctx context.Context, owner, id, date string, day domain.DayLog) (domain.TravelLog, error) {
	const q = `
		UPDATE sprints
		SET travel_log = jsonb_set(travel_log, ARRAY[@date::text], @day::jsonb, true)
		WHERE owner = @owner AND id = @id AND days ? @date::text
		RETURNING travel_log`

	if day.Locations == nil {
		day.Locations = []domain.Location{}
	}
	body, err := json.Marshal(day)
	if err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ReplaceDayLog: marshal: %w", err)
	}

	var raw []byte
	err = r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner": owner, "id": id, "date": date, "day": string(body)}).Scan(&raw)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("repo.SprintRepo.ReplaceDayLog: day %s: %w", date, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.SprintRepo.ReplaceDayLog: %w", err)
	}

	log := domain.TravelLog{}
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("repo.SprintRepo.ReplaceDayLog: unmarshal: %w", err)
	}
	return log, nil
}

// scanPgSprint maps a sprints row into a domain.Sprint, decoding the two
// JSONB columns.
func scanPgSprint(s scanner) (domain.Sprint, error) {
	var (
		sp         domain.Sprint
		start, end pgtype.Date
		days       []byte
		travel     []byte
	)

	err := s.Scan(&sp.Owner, &sp.ID, &sp.Name, &start, &end, &days, &travel, &sp.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.Sprint{}, domain.ErrNotFound
		}
		return domain.Sprint{}, err
	}

	sp.StartDate = domain.TruncateDate(start.Time)
	sp.EndDate = domain.TruncateDate(end.Time)
	if err := decodeDocument(&sp, days, travel); err != nil {
		return domain.Sprint{}, err
	}
	return sp, nil
}

// decodeDocument fills the Days and TravelLog maps from their JSON columns.
// Null day slices are normalized to empty ones.
func decodeDocument(sp *domain.Sprint, days, travel []byte) error {
	sp.Days = domain.Days{}
	if err := json.Unmarshal(days, &sp.Days); err != nil {
		return fmt.Errorf("decode days: %w", err)
	}
	for k, v := range sp.Days {
		if v == nil {
			sp.Days[k] = []domain.Todo{}
		}
	}
	sp.TravelLog = domain.TravelLog{}
	if len(travel) > 0 {
		if err := json.Unmarshal(travel, &sp.TravelLog); err != nil {
			return fmt.Errorf("decode travel log: %w", err)
		}
	}
	return nil
}

// sortNewestFirst orders sprints by creation time, newest first, with the id
// as a stable tie breaker.
func sortNewestFirst(sprints []domain.Sprint) {
	sort.SliceStable(sprints, func(i, j int) bool {
		if sprints[i].CreatedAt.Equal(sprints[j].CreatedAt) {
			return sprints[i].ID > sprints[j].ID
		}
		return sprints[i].CreatedAt.After(sprints[j].CreatedAt)
	})
}
