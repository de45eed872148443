package service_test

import (
	"context"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// mockCredentialRepo is a hand-written test double for repo.CredentialRepo.
// Each method is a function field; set only the ones your test needs.
type mockCredentialRepo struct {
	get         func(ctx context.Context, username string) (domain.Credential, error)
	create      func(ctx context.Context, c domain.Credential) (bool, error)
	list        func(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error)
	setDisabled func(ctx context.Context, username string, disabled bool) error
	setAdmin    func(ctx context.Context, username string, admin bool) error
	delete      func(ctx context.Context, username string) error
}

func (m *mockCredentialRepo) Get(ctx context.Context, username string) (domain.Credential, error) {
	return m.get(ctx, username)
}
func (m *mockCredentialRepo) Create(ctx context.Context, c domain.Credential) (bool, error) {
	return m.create(ctx, c)
}
func (m *mockCredentialRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	return m.list(ctx, p)
}
func (m *mockCredentialRepo) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return m.setDisabled(ctx, username, disabled)
}
func (m *mockCredentialRepo) SetAdmin(ctx context.Context, username string, admin bool) error {
	return m.setAdmin(ctx, username, admin)
}
func (m *mockCredentialRepo) Delete(ctx context.Context, username string) error {
	return m.delete(ctx, username)
}

// compile-time check: mockCredentialRepo must satisfy repo.CredentialRepo.
var _ repo.CredentialRepo = (*mockCredentialRepo)(nil)

// mockSprintRepo is a hand-written test double for repo.SprintRepo.
type mockSprintRepo struct {
	get           func(ctx context.Context, owner, id string) (domain.Sprint, error)
	create        func(ctx context.Context, s domain.Sprint) (bool, error)
	rename        func(ctx context.Context, owner, id, name string) error
	listByOwner   func(ctx context.Context, owner string) ([]domain.Sprint, error)
	delete        func(ctx context.Context, owner, id string) error
	deleteByOwner func(ctx context.Context, owner string) (int64, error)
	replaceDay    func(ctx context.Context, owner, id, date string, todos []domain.Todo) error
	replaceDays   func(ctx context.Context, owner, id string, patch domain.Days) error
	replaceDayLog func(ctx context.Context, owner, id, date string, day domain.DayLog) (domain.TravelLog, error)
}

func (m *mockSprintRepo) Get(ctx context.Context, owner, id string) (domain.Sprint, error) {
	return m.get(ctx, owner, id)
}
func (m *mockSprintRepo) Create(ctx context.Context, s domain.Sprint) (bool, error) {
	return m.create(ctx, s)
}
func (m *mockSprintRepo) Rename(ctx context.Context, owner, id, name string) error {
	return m.rename(ctx, owner, id, name)
}
func (m *mockSprintRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Sprint, error) {
	return m.listByOwner(ctx, owner)
}
func (m *mockSprintRepo) Delete(ctx context.Context, owner, id string) error {
	return m.delete(ctx, owner, id)
}
func (m *mockSprintRepo) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	return m.deleteByOwner(ctx, owner)
}
func (m *mockSprintRepo) ReplaceDay(ctx context.Context, owner, id, date string, todos []domain.Todo) error {
	return m.replaceDay(ctx, owner, id, date, todos)
}
func (m *mockSprintRepo) ReplaceDays(ctx context.Context, owner, id string, patch domain.Days) error {
	return m.replaceDays(ctx, owner, id, patch)
}
func (m *mockSprintRepo) ReplaceDayLog(ctx context.Context, owner, id, date string, day domain.DayLog) (domain.TravelLog, error) {
	return m.replaceDayLog(ctx, owner, id, date, day)
}

// compile-time check: mockSprintRepo must satisfy repo.SprintRepo.
var _ repo.SprintRepo = (*mockSprintRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sprintFixture is a three-day sprint owned by alice.
func sprintFixture() domain.Sprint {
	return domain.NewSprint("alice", day(2025, 6, 1), day(2025, 6, 3), "", day(2025, 5, 20))
}

// docRepo returns a mock whose reads and writes operate on one in-memory
// document, plus a pointer to that document for assertions. writes counts
// every write call.
func docRepo(sp domain.Sprint) (*mockSprintRepo, *domain.Sprint, *int) {
	doc := sp.Clone()
	writes := 0
	m := &mockSprintRepo{
		get: func(_ context.Context, owner, id string) (domain.Sprint, error) {
			if owner != doc.Owner || id != doc.ID {
				return domain.Sprint{}, domain.ErrNotFound
			}
			return doc.Clone(), nil
		},
		replaceDay: func(_ context.Context, _, _, date string, todos []domain.Todo) error {
			writes++
			if !doc.HasDay(date) {
				return domain.ErrNotFound
			}
			doc.Days = doc.Days.Merge(domain.Days{date: todos})
			return nil
		},
		replaceDays: func(_ context.Context, _, _ string, patch domain.Days) error {
			writes++
			for k := range patch {
				if !doc.HasDay(k) {
					return domain.ErrNotFound
				}
			}
			doc.Days = doc.Days.Merge(patch)
			return nil
		},
		replaceDayLog: func(_ context.Context, _, _, date string, d domain.DayLog) (domain.TravelLog, error) {
			writes++
			doc.TravelLog = doc.TravelLog.With(date, d)
			return doc.TravelLog.Clone(), nil
		},
		rename: func(_ context.Context, _, _, name string) error {
			writes++
			doc.Name = name
			return nil
		},
	}
	return m, &doc, &writes
}
