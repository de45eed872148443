package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority ranks a todo inside its day.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// timeLayout is the format of the optional time-of-day on a todo.
const timeLayout = "15:04"

// Todo is a single task inside one day bucket.
// IDs are opaque and only unique within their day.
type Todo struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	Priority         Priority  `json:"priority"`
	Time             string    `json:"time,omitempty"`
	Completed        bool      `json:"completed"`
	Recurring        bool      `json:"recurring"`
	RecurringGroupID string    `json:"recurring_group_id,omitempty"`
	Subtasks         []Subtask `json:"subtasks"`
	CreatedAt        time.Time `json:"created_at"`
}

// Subtask is owned by its parent todo; order is meaningful.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TodoDraft is the caller-supplied part of a new todo.
// ID and GroupID are optional: the sync engine fills them so local and remote
// copies agree, other callers leave them empty and the service generates them.
type TodoDraft struct {
	ID       string
	GroupID  uuid.UUID
	Text     string
	Priority Priority
	Time     string
}

// Normalize trims the text and defaults the priority to medium.
func (d TodoDraft) Normalize() TodoDraft {
	d.Text = strings.TrimSpace(d.Text)
	d.Time = strings.TrimSpace(d.Time)
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

// Validate checks a normalized draft.
func (d TodoDraft) Validate() error {
	if d.Text == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}
	return ValidateTime(d.Time)
}

// ValidateTime accepts "" or an "HH:MM" time of day.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(timeLayout, s); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}
	return nil
}

// ValidateText rejects empty or whitespace-only text.
func ValidateText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	return nil
}

// NewTodo builds a plain (non-recurring) todo from a normalized draft.
func NewTodo(d TodoDraft, now time.Time) Todo {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Todo{
		ID:        id,
		Text:      d.Text,
		Priority:  d.Priority,
		Time:      d.Time,
		Subtasks:  []Subtask{},
		CreatedAt: now.UTC(),
	}
}

// NewSubtask builds a subtask; an empty id is generated.
func NewSubtask(id, text string) Subtask {
	if id == "" {
		id = uuid.NewString()
	}
	return Subtask{ID: id, Text: strings.TrimSpace(text)}
}

// --- pure day transformations ----------------------------------------------
// Every function returns a new slice and never writes into its input, so a
// day slice can be shared between snapshots.

// AppendTodo adds t at the end of the day.
func AppendTodo(todos []Todo, t Todo) []Todo {
	out := make([]Todo, 0, len(todos)+1)
	out = append(out, todos...)
	return append(out, t)
}

// ToggleTodo flips the completion flag of the todo with the given id.
// The bool result is false when no todo matched.
func ToggleTodo(todos []Todo, id string) ([]Todo, bool) {
	return updateTodo(todos, id, func(t *Todo) { t.Completed = !t.Completed })
}

// SetTodoCompleted forces the completion flag of one todo.
func SetTodoCompleted(todos []Todo, id string, completed bool) ([]Todo, bool) {
	return updateTodo(todos, id, func(t *Todo) { t.Completed = completed })
}

// EditTodoText replaces the text of one todo.
func EditTodoText(todos []Todo, id, text string) ([]Todo, bool) {
	text = strings.TrimSpace(text)
	return updateTodo(todos, id, func(t *Todo) { t.Text = text })
}

// RemoveTodo drops the todo with the given id.
func RemoveTodo(todos []Todo, id string) ([]Todo, bool) {
	out := make([]Todo, 0, len(todos))
	found := false
	for _, t := range todos {
		if t.ID == id {
			found = true
			continue
		}
		out = append(out, t)
	}
	return out, found
}

// FindTodo returns the todo with the given id.
func FindTodo(todos []Todo, id string) (Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}

// ReorderTodos returns the day in the order named by ids.
// Todos not named keep their relative order after the named ones.
// Unknown or repeated ids fail with ErrValidation.
func ReorderTodos(todos []Todo, ids []string) ([]Todo, error) {
	byID := make(map[string]Todo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}
	seen := make(map[string]bool, len(ids))
	out := make([]Todo, 0, len(todos))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown todo id %q", ErrValidation, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate todo id %q", ErrValidation, id)
		}
		seen[id] = true
		out = append(out, t)
	}
	for _, t := range todos {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// AddSubtask appends s to the subtasks of one todo.
func AddSubtask(todos []Todo, todoID string, s Subtask) ([]Todo, bool) {
	return updateTodo(todos, todoID, func(t *Todo) {
		subs := make([]Subtask, 0, len(t.Subtasks)+1)
		subs = append(subs, t.Subtasks...)
		t.Subtasks = append(subs, s)
	})
}

// ToggleSubtask flips one subtask. The bool is false when the todo or the
// subtask does not exist.
func ToggleSubtask(todos []Todo, todoID, subtaskID string) ([]Todo, bool) {
	found := false
	out, ok := updateTodo(todos, todoID, func(t *Todo) {
		subs := make([]Subtask, len(t.Subtasks))
		for i, s := range t.Subtasks {
			if s.ID == subtaskID {
				s.Completed = !s.Completed
				found = true
			}
			subs[i] = s
		}
		t.Subtasks = subs
	})
	return out, ok && found
}

// RemoveSubtask drops one subtask.
func RemoveSubtask(todos []Todo, todoID, subtaskID string) ([]Todo, bool) {
	found := false
	out, ok := updateTodo(todos, todoID, func(t *Todo) {
		subs := make([]Subtask, 0, len(t.Subtasks))
		for _, s := range t.Subtasks {
			if s.ID == subtaskID {
				found = true
				continue
			}
			subs = append(subs, s)
		}
		t.Subtasks = subs
	})
	return out, ok && found
}

// ReorderSubtasks orders the subtasks of one todo by ids, with the same rules
// as ReorderTodos. A missing todo fails with ErrNotFound.
func ReorderSubtasks(todos []Todo, todoID string, ids []string) ([]Todo, error) {
	var reorderErr error
	out, ok := updateTodo(todos, todoID, func(t *Todo) {
		byID := make(map[string]Subtask, len(t.Subtasks))
		for _, s := range t.Subtasks {
			byID[s.ID] = s
		}
		seen := make(map[string]bool, len(ids))
		subs := make([]Subtask, 0, len(t.Subtasks))
		for _, id := range ids {
			s, found := byID[id]
			if !found || seen[id] {
				reorderErr = fmt.Errorf("%w: unknown or duplicate subtask id %q", ErrValidation, id)
				return
			}
			seen[id] = true
			subs = append(subs, s)
		}
		for _, s := range t.Subtasks {
			if !seen[s.ID] {
				subs = append(subs, s)
			}
		}
		t.Subtasks = subs
	})
	if !ok {
		return nil, fmt.Errorf("todo %q: %w", todoID, ErrNotFound)
	}
	if reorderErr != nil {
		return nil, reorderErr
	}
	return out, nil
}

// updateTodo copies the day and applies fn to the copy of the matching todo.
func updateTodo(todos []Todo, id string, fn func(*Todo)) ([]Todo, bool) {
	out := make([]Todo, len(todos))
	copy(out, todos)
	for i := range out {
		if out[i].ID == id {
			fn(&out[i])
			return out, true
		}
	}
	return out, false
}
