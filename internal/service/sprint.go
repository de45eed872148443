package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// SprintService implements the sprint store operations: load-or-create,
// listing, rename, delete and the per-day todo and subtask mutations.
//
// Per-day mutations read the day, apply a pure domain transformation and
// write the whole day back. Two writers racing on the same day can lose an
// update; there is no version check.
type SprintService struct {
	repo    repo.SprintRepo
	maxDays int
	now     func() time.Time
}

// NewSprintService constructs a SprintService. maxDays caps the span of a new
// sprint; zero disables the cap.
func NewSprintService(r repo.SprintRepo, maxDays int) *SprintService {
	return &SprintService{repo: r, maxDays: maxDays, now: time.Now}
}

// LoadOrCreate returns the sprint for [start, end], creating it on first use.
// created reports whether this call inserted the document.
func (s *SprintService) LoadOrCreate(ctx context.Context, owner string, start, end time.Time, name string) (domain.Sprint, bool, error) {
	if err := domain.ValidateRange(start, end, s.maxDays); err != nil {
		return domain.Sprint{}, false, fmt.Errorf("service.SprintService.LoadOrCreate: %w", err)
	}
	start, end = domain.TruncateDate(start), domain.TruncateDate(end)
	id := domain.SprintID(start, end)

	existing, err := s.repo.Get(ctx, owner, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Sprint{}, false, fmt.Errorf("service.SprintService.LoadOrCreate: %w", err)
	}

	created, err := s.repo.Create(ctx, domain.NewSprint(owner, start, end, name, s.now()))
	if err != nil {
		return domain.Sprint{}, false, fmt.Errorf("service.SprintService.LoadOrCreate: %w", err)
	}

	// Re-read so a concurrent creator's document is returned, not ours.
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domain.Sprint{}, false, fmt.Errorf("service.SprintService.LoadOrCreate: %w", err)
	}
	return sp, created, nil
}

// Get returns one sprint of owner.
func (s *SprintService) Get(ctx context.Context, owner, id string) (domain.Sprint, error) {
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domain.Sprint{}, fmt.Errorf("service.SprintService.Get: %w", err)
	}
	return sp, nil
}

// GetShared returns another user's sprint for read-only viewing.
func (s *SprintService) GetShared(ctx context.Context, owner, id string) (domain.Sprint, error) {
	sp, err := s.repo.Get(ctx, domain.NormalizeUsername(owner), id)
	if err != nil {
		return domain.Sprint{}, fmt.Errorf("service.SprintService.GetShared: %w", err)
	}
	return sp, nil
}

// List returns summaries of every sprint of owner, newest first.
func (s *SprintService) List(ctx context.Context, owner string) ([]domain.SprintSummary, error) {
	sprints, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service.SprintService.List: %w", err)
	}
	out := make([]domain.SprintSummary, 0, len(sprints))
	for _, sp := range sprints {
		out = append(out, sp.Summary())
	}
	return out, nil
}

// Rename changes only the sprint name and returns the updated sprint.
func (s *SprintService) Rename(ctx context.Context, owner, id, name string) (domain.Sprint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Sprint{}, fmt.Errorf("service.SprintService.Rename: %w: name is required", domain.ErrValidation)
	}
	if err := s.repo.Rename(ctx, owner, id, name); err != nil {
		return domain.Sprint{}, fmt.Errorf("service.SprintService.Rename: %w", err)
	}
	return s.Get(ctx, owner, id)
}

// Delete removes the sprint. It cannot be undone.
func (s *SprintService) Delete(ctx context.Context, owner, id string) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("service.SprintService.Delete: %w", err)
	}
	return nil
}

// ---- todos -----------------------------------------------------------------

// AddTodo appends a new todo to the end of the day.
func (s *SprintService) AddTodo(ctx context.Context, owner, id, date string, d domain.TodoDraft) (domain.Todo, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.AddTodo: %w", err)
	}
	t := domain.NewTodo(d, s.now())
	_, err := s.mutateDay(ctx, owner, id, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		if _, exists := domain.FindTodo(todos, t.ID); exists {
			return nil, fmt.Errorf("%w: todo %q already exists", domain.ErrValidation, t.ID)
		}
		return domain.AppendTodo(todos, t), nil
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.AddTodo: %w", err)
	}
	return t, nil
}

// ToggleTodo flips the completion flag of one todo.
func (s *SprintService) ToggleTodo(ctx context.Context, owner, id, date, todoID string) (domain.Todo, error) {
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.ToggleTodo(todos, todoID)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.ToggleTodo: %w", err)
	}
	return t, nil
}

// SetTodoCompleted forces the completion flag of one todo. Unlike ToggleTodo
// it is idempotent, so a replayed or reordered write lands on the same value.
func (s *SprintService) SetTodoCompleted(ctx context.Context, owner, id, date, todoID string, completed bool) (domain.Todo, error) {
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.SetTodoCompleted(todos, todoID, completed)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.SetTodoCompleted: %w", err)
	}
	return t, nil
}

// EditTodoText replaces the text of one todo.
func (s *SprintService) EditTodoText(ctx context.Context, owner, id, date, todoID, text string) (domain.Todo, error) {
	if err := domain.ValidateText(text); err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.EditTodoText: %w", err)
	}
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.EditTodoText(todos, todoID, text)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.EditTodoText: %w", err)
	}
	return t, nil
}

// DeleteTodo removes one todo from the day.
func (s *SprintService) DeleteTodo(ctx context.Context, owner, id, date, todoID string) error {
	_, err := s.mutateDay(ctx, owner, id, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		out, ok := domain.RemoveTodo(todos, todoID)
		if !ok {
			return nil, fmt.Errorf("todo %q: %w", todoID, domain.ErrNotFound)
		}
		return out, nil
	})
	if err != nil {
		return fmt.Errorf("service.SprintService.DeleteTodo: %w", err)
	}
	return nil
}

// ReorderTodos stores the day in the order given by ids and returns it.
func (s *SprintService) ReorderTodos(ctx context.Context, owner, id, date string, ids []string) ([]domain.Todo, error) {
	out, err := s.mutateDay(ctx, owner, id, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		return domain.ReorderTodos(todos, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("service.SprintService.ReorderTodos: %w", err)
	}
	return out, nil
}

// ---- subtasks --------------------------------------------------------------

// AddSubtask appends a subtask to one todo. An empty subtaskID is generated.
func (s *SprintService) AddSubtask(ctx context.Context, owner, id, date, todoID, subtaskID, text string) (domain.Todo, error) {
	if err := domain.ValidateText(text); err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.AddSubtask: %w", err)
	}
	sub := domain.NewSubtask(subtaskID, text)
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.AddSubtask(todos, todoID, sub)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.AddSubtask: %w", err)
	}
	return t, nil
}

// ToggleSubtask flips one subtask.
func (s *SprintService) ToggleSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error) {
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.ToggleSubtask(todos, todoID, subtaskID)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.ToggleSubtask: %w", err)
	}
	return t, nil
}

// DeleteSubtask removes one subtask.
func (s *SprintService) DeleteSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error) {
	t, err := s.mutateTodo(ctx, owner, id, date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.RemoveSubtask(todos, todoID, subtaskID)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.DeleteSubtask: %w", err)
	}
	return t, nil
}

// ReorderSubtasks orders the subtasks of one todo.
func (s *SprintService) ReorderSubtasks(ctx context.Context, owner, id, date, todoID string, ids []string) (domain.Todo, error) {
	out, err := s.mutateDay(ctx, owner, id, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		return domain.ReorderSubtasks(todos, todoID, ids)
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("service.SprintService.ReorderSubtasks: %w", err)
	}
	t, _ := domain.FindTodo(out, todoID)
	return t, nil
}

// ---- helpers ---------------------------------------------------------------

// mutateDay reads one day, applies fn and writes the whole day back.
// A date that is not one of the sprint's days is a validation error.
func (s *SprintService) mutateDay(ctx context.Context, owner, id, date string, fn func([]domain.Todo) ([]domain.Todo, error)) ([]domain.Todo, error) {
	if _, err := domain.ParseDateKey(date); err != nil {
		return nil, err
	}
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	todos, ok := sp.Days[date]
	if !ok {
		return nil, fmt.Errorf("%w: %s is outside the sprint", domain.ErrValidation, date)
	}
	out, err := fn(todos)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceDay(ctx, owner, id, date, out); err != nil {
		return nil, err
	}
	return out, nil
}

// mutateTodo is mutateDay for transformations addressed at one todo. A false
// result from fn means the todo or subtask does not exist.
func (s *SprintService) mutateTodo(ctx context.Context, owner, id, date, todoID string, fn func([]domain.Todo) ([]domain.Todo, bool)) (domain.Todo, error) {
	out, err := s.mutateDay(ctx, owner, id, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		out, ok := fn(todos)
		if !ok {
			return nil, fmt.Errorf("todo %q: %w", todoID, domain.ErrNotFound)
		}
		return out, nil
	})
	if err != nil {
		return domain.Todo{}, err
	}
	t, _ := domain.FindTodo(out, todoID)
	return t, nil
}
