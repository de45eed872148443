package syncengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/jetjot/internal/domain"
)

// Rename changes the display name of the active sprint.
func (e *Engine) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("syncengine.Engine.Rename: %w: name is required", domain.ErrValidation)
	}
	return e.withSprint(func(sp *domain.Sprint) error {
		sp.Name = name
		id := sp.ID
		e.enqueueLocked("rename sprint", id, func(ctx context.Context) error {
			return e.backend.Rename(ctx, id, name)
		})
		return nil
	})
}

// ---- todos -----------------------------------------------------------------

// AddTodo appends a todo to date. The id is generated here so the local and
// the remote copy agree.
func (e *Engine) AddTodo(date string, d domain.TodoDraft) (domain.Todo, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return domain.Todo{}, fmt.Errorf("syncengine.Engine.AddTodo: %w", err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	t := domain.NewTodo(d, e.now())

	err := e.mutateDay("add todo", date, func(todos []domain.Todo) ([]domain.Todo, error) {
		return domain.AppendTodo(todos, t), nil
	}, func(ctx context.Context, id string) error {
		_, err := e.backend.AddTodo(ctx, id, date, d)
		return err
	})
	if err != nil {
		return domain.Todo{}, fmt.Errorf("syncengine.Engine.AddTodo: %w", err)
	}
	return t, nil
}

// ToggleTodo flips the completion of one todo locally and sends the resulting
// value, not a flip, so queued writes cannot drift from the local copy. If the
// remote write fails the flip is undone, provided the todo still holds the
// value set here.
func (e *Engine) ToggleTodo(date, todoID string) error {
	var want bool
	err := e.mutateTodo("toggle todo", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		out, ok := domain.ToggleTodo(todos, todoID)
		if ok {
			t, _ := domain.FindTodo(out, todoID)
			want = t.Completed
		}
		return out, ok
	}, func(ctx context.Context, id string) error {
		if _, err := e.backend.SetTodoCompleted(ctx, id, date, todoID, want); err != nil {
			e.rollbackToggle(id, date, todoID, want)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.ToggleTodo: %w", err)
	}
	return nil
}

func (e *Engine) rollbackToggle(sprintID, date, todoID string, want bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isActiveLocked(sprintID) {
		return
	}
	todos := e.sprint.Days[date]
	t, ok := domain.FindTodo(todos, todoID)
	if !ok || t.Completed != want {
		return
	}
	out, _ := domain.SetTodoCompleted(todos, todoID, !want)
	e.replaceDayLocked(date, out)
	e.logger.Warn("toggle rolled back", "sprint_id", sprintID, "date", date, "todo_id", todoID)
}

// EditTodoText replaces the text of one todo.
func (e *Engine) EditTodoText(date, todoID, text string) error {
	if err := domain.ValidateText(text); err != nil {
		return fmt.Errorf("syncengine.Engine.EditTodoText: %w", err)
	}
	text = strings.TrimSpace(text)
	err := e.mutateTodo("edit todo", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.EditTodoText(todos, todoID, text)
	}, func(ctx context.Context, id string) error {
		return e.backend.EditTodoText(ctx, id, date, todoID, text)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.EditTodoText: %w", err)
	}
	return nil
}

// DeleteTodo removes one todo.
func (e *Engine) DeleteTodo(date, todoID string) error {
	err := e.mutateTodo("delete todo", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.RemoveTodo(todos, todoID)
	}, func(ctx context.Context, id string) error {
		return e.backend.DeleteTodo(ctx, id, date, todoID)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.DeleteTodo: %w", err)
	}
	return nil
}

// ReorderTodos puts the todos of date in the order named by ids.
func (e *Engine) ReorderTodos(date string, ids []string) error {
	err := e.mutateDay("reorder todos", date, func(todos []domain.Todo) ([]domain.Todo, error) {
		return domain.ReorderTodos(todos, ids)
	}, func(ctx context.Context, id string) error {
		return e.backend.ReorderTodos(ctx, id, date, ids)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.ReorderTodos: %w", err)
	}
	return nil
}

// ---- subtasks --------------------------------------------------------------

// AddSubtask appends a subtask to one todo.
func (e *Engine) AddSubtask(date, todoID, text string) (domain.Subtask, error) {
	if err := domain.ValidateText(text); err != nil {
		return domain.Subtask{}, fmt.Errorf("syncengine.Engine.AddSubtask: %w", err)
	}
	s := domain.NewSubtask("", text)
	err := e.mutateTodo("add subtask", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.AddSubtask(todos, todoID, s)
	}, func(ctx context.Context, id string) error {
		return e.backend.AddSubtask(ctx, id, date, todoID, s.ID, s.Text)
	})
	if err != nil {
		return domain.Subtask{}, fmt.Errorf("syncengine.Engine.AddSubtask: %w", err)
	}
	return s, nil
}

// ToggleSubtask flips one subtask. Unlike ToggleTodo it is not rolled back.
func (e *Engine) ToggleSubtask(date, todoID, subtaskID string) error {
	err := e.mutateTodo("toggle subtask", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.ToggleSubtask(todos, todoID, subtaskID)
	}, func(ctx context.Context, id string) error {
		return e.backend.ToggleSubtask(ctx, id, date, todoID, subtaskID)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.ToggleSubtask: %w", err)
	}
	return nil
}

// DeleteSubtask removes one subtask.
func (e *Engine) DeleteSubtask(date, todoID, subtaskID string) error {
	err := e.mutateTodo("delete subtask", date, todoID, func(todos []domain.Todo) ([]domain.Todo, bool) {
		return domain.RemoveSubtask(todos, todoID, subtaskID)
	}, func(ctx context.Context, id string) error {
		return e.backend.DeleteSubtask(ctx, id, date, todoID, subtaskID)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.DeleteSubtask: %w", err)
	}
	return nil
}

// ReorderSubtasks orders the subtasks of one todo.
func (e *Engine) ReorderSubtasks(date, todoID string, ids []string) error {
	err := e.mutateDay("reorder subtasks", date, func(todos []domain.Todo) ([]domain.Todo, error) {
		return domain.ReorderSubtasks(todos, todoID, ids)
	}, func(ctx context.Context, id string) error {
		return e.backend.ReorderSubtasks(ctx, id, date, todoID, ids)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.ReorderSubtasks: %w", err)
	}
	return nil
}

// ---- recurring -------------------------------------------------------------

// AddRecurring adds one todo to every day of the active sprint and opens the
// undo window for the new group, replacing any earlier one.
func (e *Engine) AddRecurring(d domain.TodoDraft) (domain.RecurringBatch, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("syncengine.Engine.AddRecurring: %w", err)
	}
	if d.GroupID == uuid.Nil {
		d.GroupID = uuid.New()
	}

	var batch domain.RecurringBatch
	err := e.withSprint(func(sp *domain.Sprint) error {
		batch = domain.NewRecurringBatch(sp.Days.Keys(), d, e.now())
		sp.Days = sp.Days.Merge(domain.ApplyBatch(sp.Days, batch))
		id := sp.ID
		e.enqueueLocked("add recurring", id, func(ctx context.Context) error {
			_, err := e.backend.AddRecurring(ctx, id, d)
			return err
		})
		e.startUndoLocked(id, batch.GroupID)
		return nil
	})
	if err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("syncengine.Engine.AddRecurring: %w", err)
	}
	return batch, nil
}

// RemoveRecurringGroup drops every member of a group from every day.
// It returns how many todos were removed locally.
func (e *Engine) RemoveRecurringGroup(groupID string) (int, error) {
	var n int
	err := e.withSprint(func(sp *domain.Sprint) error {
		n = e.removeGroupLocked(sp.ID, groupID)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("syncengine.Engine.RemoveRecurringGroup: %w", err)
	}
	return n, nil
}

// removeGroupLocked applies the removal locally and queues it remotely even
// when nothing matched here, since the server may still hold members.
func (e *Engine) removeGroupLocked(sprintID, groupID string) int {
	patch := domain.RemoveGroup(e.sprint.Days, groupID)
	n := 0
	for date, todos := range patch {
		n += len(e.sprint.Days[date]) - len(todos)
	}
	e.sprint.Days = e.sprint.Days.Merge(patch)
	e.enqueueLocked("remove recurring group", sprintID, func(ctx context.Context) error {
		_, err := e.backend.RemoveRecurringGroup(ctx, sprintID, groupID)
		return err
	})
	return n
}

// ---- travel log ------------------------------------------------------------

// AddLocation pins a location on date. The server's travel log, which carries
// the geocoded name, replaces the local one when it arrives.
func (e *Engine) AddLocation(date string, d domain.LocationDraft) (domain.Location, error) {
	if err := d.Validate(); err != nil {
		return domain.Location{}, fmt.Errorf("syncengine.Engine.AddLocation: %w", err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	loc := domain.NewLocation(d, e.now())
	err := e.mutateTravel("add location", date, func(day domain.DayLog) (domain.DayLog, error) {
		return day.AddLocation(loc), nil
	}, func(ctx context.Context, id string) (domain.TravelLog, error) {
		return e.backend.AddLocation(ctx, id, date, d)
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("syncengine.Engine.AddLocation: %w", err)
	}
	return loc, nil
}

// RemoveLocation removes one pin from date.
func (e *Engine) RemoveLocation(date, locationID string) error {
	err := e.mutateTravel("remove location", date, func(day domain.DayLog) (domain.DayLog, error) {
		out, ok := day.RemoveLocation(locationID)
		if !ok {
			return day, fmt.Errorf("location %q: %w", locationID, domain.ErrNotFound)
		}
		return out, nil
	}, func(ctx context.Context, id string) (domain.TravelLog, error) {
		return e.backend.RemoveLocation(ctx, id, date, locationID)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.RemoveLocation: %w", err)
	}
	return nil
}

// SetPhoto replaces the cover photo of date; nil clears it.
func (e *Engine) SetPhoto(date string, photo *string) error {
	if err := domain.ValidatePhoto(photo); err != nil {
		return fmt.Errorf("syncengine.Engine.SetPhoto: %w", err)
	}
	err := e.mutateTravel("set photo", date, func(day domain.DayLog) (domain.DayLog, error) {
		return day.WithPhoto(photo), nil
	}, func(ctx context.Context, id string) (domain.TravelLog, error) {
		return e.backend.SetPhoto(ctx, id, date, photo)
	})
	if err != nil {
		return fmt.Errorf("syncengine.Engine.SetPhoto: %w", err)
	}
	return nil
}

// ---- helpers ---------------------------------------------------------------

// mutateDay applies fn to the todos of date and queues remote.
func (e *Engine) mutateDay(op, date string, fn func([]domain.Todo) ([]domain.Todo, error), remote func(ctx context.Context, sprintID string) error) error {
	return e.withSprint(func(sp *domain.Sprint) error {
		todos, ok := sp.Days[date]
		if !ok {
			return fmt.Errorf("%w: %s is outside the sprint", domain.ErrValidation, date)
		}
		out, err := fn(todos)
		if err != nil {
			return err
		}
		e.replaceDayLocked(date, out)
		id := sp.ID
		e.enqueueLocked(op, id, func(ctx context.Context) error { return remote(ctx, id) })
		return nil
	})
}

// mutateTodo is mutateDay for changes addressed at one todo; a false result
// from fn means the todo or subtask does not exist.
func (e *Engine) mutateTodo(op, date, todoID string, fn func([]domain.Todo) ([]domain.Todo, bool), remote func(ctx context.Context, sprintID string) error) error {
	return e.mutateDay(op, date, func(todos []domain.Todo) ([]domain.Todo, error) {
		out, ok := fn(todos)
		if !ok {
			return nil, fmt.Errorf("todo %q: %w", todoID, domain.ErrNotFound)
		}
		return out, nil
	}, remote)
}

// mutateTravel applies fn to the DayLog of date and queues remote. The log
// the backend returns is adopted only if no newer travel write was queued
// in the meantime and the sprint is still open.
func (e *Engine) mutateTravel(op, date string, fn func(domain.DayLog) (domain.DayLog, error), remote func(ctx context.Context, sprintID string) (domain.TravelLog, error)) error {
	return e.withSprint(func(sp *domain.Sprint) error {
		if !sp.HasDay(date) {
			return fmt.Errorf("%w: %s is outside the sprint", domain.ErrValidation, date)
		}
		day, err := fn(sp.TravelLog.Day(date))
		if err != nil {
			return err
		}
		sp.TravelLog = sp.TravelLog.With(date, day)

		e.travelSeq++
		seq := e.travelSeq
		id := sp.ID
		e.enqueueLocked(op, id, func(ctx context.Context) error {
			log, err := remote(ctx, id)
			if err != nil {
				return err
			}
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.isActiveLocked(id) && seq == e.travelSeq {
				e.sprint.TravelLog = log
			}
			return nil
		})
		return nil
	})
}

// replaceDayLocked swaps one day bucket in a fresh Days map, leaving earlier
// snapshots untouched.
func (e *Engine) replaceDayLocked(date string, todos []domain.Todo) {
	days := e.sprint.Days.Clone()
	days[date] = todos
	e.sprint.Days = days
}
