package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecurringBatch is the result of fanning one todo out across every day of a
// sprint. Todos maps each day key to the todo created for it.
type RecurringBatch struct {
	GroupID string          `json:"group_id"`
	Todos   map[string]Todo `json:"todos"`
}

// RecurringMemberID derives the id of the group member for one day. Client and
// server compute the same value from the group id, so neither has to echo ids.
func RecurringMemberID(groupID uuid.UUID, date string) string {
	return uuid.NewSHA1(groupID, []byte(date)).String()
}

// NewRecurringBatch builds one recurring todo per day key, all sharing a group
// id. A nil draft.GroupID is replaced by a fresh random id.
func NewRecurringBatch(dayKeys []string, d TodoDraft, now time.Time) RecurringBatch {
	gid := d.GroupID
	if gid == uuid.Nil {
		gid = uuid.New()
	}
	batch := RecurringBatch{GroupID: gid.String(), Todos: make(map[string]Todo, len(dayKeys))}
	for _, date := range dayKeys {
		batch.Todos[date] = Todo{
			ID:               RecurringMemberID(gid, date),
			Text:             d.Text,
			Priority:         d.Priority,
			Time:             d.Time,
			Recurring:        true,
			RecurringGroupID: batch.GroupID,
			Subtasks:         []Subtask{},
			CreatedAt:        now.UTC(),
		}
	}
	return batch
}

// FindBatch collects the members of groupID already present in days. ok is
// false when the group has no members.
func FindBatch(days Days, groupID string) (b RecurringBatch, ok bool) {
	b = RecurringBatch{GroupID: groupID, Todos: make(map[string]Todo)}
	for date, todos := range days {
		for _, t := range todos {
			if t.RecurringGroupID != "" && t.RecurringGroupID == groupID {
				b.Todos[date] = t
				break
			}
		}
	}
	return b, len(b.Todos) > 0
}

// CheckBatch fails with ErrValidation when a batch member would share its id
// with a todo already on that day.
func CheckBatch(days Days, b RecurringBatch) error {
	for date, t := range b.Todos {
		if _, exists := FindTodo(days[date], t.ID); exists {
			return fmt.Errorf("%w: todo %q already exists on %s", ErrValidation, t.ID, date)
		}
	}
	return nil
}

// ApplyBatch returns the changed day buckets after appending each batch todo
// to its day. Keys absent from days are skipped; day keys are never added.
func ApplyBatch(days Days, b RecurringBatch) Days {
	patch := make(Days, len(b.Todos))
	for date, t := range b.Todos {
		todos, ok := days[date]
		if !ok {
			continue
		}
		patch[date] = AppendTodo(todos, t)
	}
	return patch
}

// RemoveGroup returns the changed day buckets after dropping every member of
// the group. An empty patch means the group had no members left.
func RemoveGroup(days Days, groupID string) Days {
	patch := make(Days)
	for date, todos := range days {
		out := make([]Todo, 0, len(todos))
		for _, t := range todos {
			if t.RecurringGroupID != "" && t.RecurringGroupID == groupID {
				continue
			}
			out = append(out, t)
		}
		if len(out) != len(todos) {
			patch[date] = out
		}
	}
	return patch
}

// Merge writes every bucket of patch into a copy of days.
func (d Days) Merge(patch Days) Days {
	out := d.Clone()
	for k, v := range patch {
		if _, ok := out[k]; ok {
			out[k] = v
		}
	}
	return out
}
