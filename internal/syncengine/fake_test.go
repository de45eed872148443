package syncengine_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/syncengine"
)

// fakeBackend is an in-memory server for one user. It runs the same domain
// transformations as the real services and records every call by name.
type fakeBackend struct {
	mu      sync.Mutex
	sprints map[string]domain.Sprint
	calls   []string
	fail    map[string]error
	// script holds per-op outcomes consumed one per call; nil lets the call
	// through.
	script map[string][]error
	// gate, when set, holds every write until it is closed.
	gate chan struct{}
	now  func() time.Time
}

var _ syncengine.Backend = (*fakeBackend)(nil)

func newFakeBackend(now func() time.Time) *fakeBackend {
	return &fakeBackend{sprints: map[string]domain.Sprint{}, fail: map[string]error{}, script: map[string][]error{}, now: now}
}

func (f *fakeBackend) outcomes(op string, errs ...error) {
	f.mu.Lock()
	f.script[op] = errs
	f.mu.Unlock()
}

func (f *fakeBackend) failOn(op string, err error) {
	f.mu.Lock()
	f.fail[op] = err
	f.mu.Unlock()
}

func (f *fakeBackend) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) stored(id string) domain.Sprint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sprints[id].Clone()
}

// write records op, waits on the gate and then applies fn to the stored
// sprint unless op is set to fail.
func (f *fakeBackend) write(op, id string, fn func(sp *domain.Sprint) error) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[op]; err != nil {
		return err
	}
	if next := f.script[op]; len(next) > 0 {
		f.script[op] = next[1:]
		if next[0] != nil {
			return next[0]
		}
	}
	sp, ok := f.sprints[id]
	if !ok {
		return fmt.Errorf("sprint %q: %w", id, domain.ErrNotFound)
	}
	sp = sp.Clone()
	if err := fn(&sp); err != nil {
		return err
	}
	f.sprints[id] = sp
	return nil
}

func (f *fakeBackend) day(sp *domain.Sprint, date string, fn func([]domain.Todo) ([]domain.Todo, bool)) error {
	out, ok := fn(sp.Days[date])
	if !ok {
		return domain.ErrNotFound
	}
	sp.Days[date] = out
	return nil
}

func (f *fakeBackend) LoadOrCreate(_ context.Context, start, end time.Time, name string) (domain.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "load")
	id := domain.SprintID(start, end)
	if sp, ok := f.sprints[id]; ok {
		return sp.Clone(), nil
	}
	sp := domain.NewSprint("alice", start, end, name, f.now())
	f.sprints[id] = sp
	return sp.Clone(), nil
}

func (f *fakeBackend) Get(_ context.Context, id string) (domain.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get")
	sp, ok := f.sprints[id]
	if !ok {
		return domain.Sprint{}, domain.ErrNotFound
	}
	return sp.Clone(), nil
}

func (f *fakeBackend) Rename(_ context.Context, id, name string) error {
	return f.write("rename", id, func(sp *domain.Sprint) error {
		sp.Name = name
		return nil
	})
}

func (f *fakeBackend) AddTodo(_ context.Context, id, date string, d domain.TodoDraft) (domain.Todo, error) {
	t := domain.NewTodo(d, f.now())
	err := f.write("add todo", id, func(sp *domain.Sprint) error {
		sp.Days[date] = domain.AppendTodo(sp.Days[date], t)
		return nil
	})
	return t, err
}

func (f *fakeBackend) SetTodoCompleted(_ context.Context, id, date, todoID string, completed bool) (domain.Todo, error) {
	var t domain.Todo
	err := f.write("toggle todo", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			out, ok := domain.SetTodoCompleted(todos, todoID, completed)
			t, _ = domain.FindTodo(out, todoID)
			return out, ok
		})
	})
	return t, err
}

func (f *fakeBackend) EditTodoText(_ context.Context, id, date, todoID, text string) error {
	return f.write("edit todo", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			return domain.EditTodoText(todos, todoID, text)
		})
	})
}

func (f *fakeBackend) DeleteTodo(_ context.Context, id, date, todoID string) error {
	return f.write("delete todo", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			return domain.RemoveTodo(todos, todoID)
		})
	})
}

func (f *fakeBackend) ReorderTodos(_ context.Context, id, date string, ids []string) error {
	return f.write("reorder todos", id, func(sp *domain.Sprint) error {
		out, err := domain.ReorderTodos(sp.Days[date], ids)
		if err != nil {
			return err
		}
		sp.Days[date] = out
		return nil
	})
}

func (f *fakeBackend) AddSubtask(_ context.Context, id, date, todoID, subtaskID, text string) error {
	return f.write("add subtask", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			return domain.AddSubtask(todos, todoID, domain.NewSubtask(subtaskID, text))
		})
	})
}

func (f *fakeBackend) ToggleSubtask(_ context.Context, id, date, todoID, subtaskID string) error {
	return f.write("toggle subtask", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			return domain.ToggleSubtask(todos, todoID, subtaskID)
		})
	})
}

func (f *fakeBackend) DeleteSubtask(_ context.Context, id, date, todoID, subtaskID string) error {
	return f.write("delete subtask", id, func(sp *domain.Sprint) error {
		return f.day(sp, date, func(todos []domain.Todo) ([]domain.Todo, bool) {
			return domain.RemoveSubtask(todos, todoID, subtaskID)
		})
	})
}

func (f *fakeBackend) ReorderSubtasks(_ context.Context, id, date, todoID string, ids []string) error {
	return f.write("reorder subtasks", id, func(sp *domain.Sprint) error {
		out, err := domain.ReorderSubtasks(sp.Days[date], todoID, ids)
		if err != nil {
			return err
		}
		sp.Days[date] = out
		return nil
	})
}

func (f *fakeBackend) AddRecurring(_ context.Context, id string, d domain.TodoDraft) (domain.RecurringBatch, error) {
	var batch domain.RecurringBatch
	err := f.write("add recurring", id, func(sp *domain.Sprint) error {
		batch = domain.NewRecurringBatch(sp.Days.Keys(), d, f.now())
		sp.Days = sp.Days.Merge(domain.ApplyBatch(sp.Days, batch))
		return nil
	})
	return batch, err
}

func (f *fakeBackend) RemoveRecurringGroup(_ context.Context, id, groupID string) (int, error) {
	n := 0
	err := f.write("remove recurring group", id, func(sp *domain.Sprint) error {
		patch := domain.RemoveGroup(sp.Days, groupID)
		for date, todos := range patch {
			n += len(sp.Days[date]) - len(todos)
		}
		sp.Days = sp.Days.Merge(patch)
		return nil
	})
	return n, err
}

// AddLocation names unnamed pins "Geocoded" the way the server's geocoder would.
func (f *fakeBackend) AddLocation(_ context.Context, id, date string, d domain.LocationDraft) (domain.TravelLog, error) {
	if d.Name == "" {
		d.Name = "Geocoded"
	}
	return f.travel("add location", id, func(sp *domain.Sprint) {
		sp.TravelLog = sp.TravelLog.With(date, sp.TravelLog.Day(date).AddLocation(domain.NewLocation(d, f.now())))
	})
}

func (f *fakeBackend) RemoveLocation(_ context.Context, id, date, locationID string) (domain.TravelLog, error) {
	return f.travel("remove location", id, func(sp *domain.Sprint) {
		day, _ := sp.TravelLog.Day(date).RemoveLocation(locationID)
		sp.TravelLog = sp.TravelLog.With(date, day)
	})
}

func (f *fakeBackend) SetPhoto(_ context.Context, id, date string, photo *string) (domain.TravelLog, error) {
	return f.travel("set photo", id, func(sp *domain.Sprint) {
		sp.TravelLog = sp.TravelLog.With(date, sp.TravelLog.Day(date).WithPhoto(photo))
	})
}

func (f *fakeBackend) travel(op, id string, fn func(sp *domain.Sprint)) (domain.TravelLog, error) {
	var log domain.TravelLog
	err := f.write(op, id, func(sp *domain.Sprint) error {
		fn(sp)
		log = sp.TravelLog.Clone()
		return nil
	})
	return log, err
}
