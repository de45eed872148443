// Package syncengine holds the active sprint of a client session in memory.
//
// Every mutation is applied to the local copy first, using the same domain
// transformations the server runs, and is then pushed to a Backend through a
// FIFO write queue drained by a single worker goroutine. Remote failures are
// recorded and logged but the local copy is kept: the client wins until the
// next Reload. Completion toggles are the one exception and roll back.
package syncengine

import (
	"context"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
)

// Backend is the remote side of the engine, scoped to one signed-in user.
// internal/client implements it over the HTTP API.
type Backend interface {
	LoadOrCreate(ctx context.Context, start, end time.Time, name string) (domain.Sprint, error)
	Get(ctx context.Context, sprintID string) (domain.Sprint, error)
	Rename(ctx context.Context, sprintID, name string) error

	AddTodo(ctx context.Context, sprintID, date string, d domain.TodoDraft) (domain.Todo, error)
	SetTodoCompleted(ctx context.Context, sprintID, date, todoID string, completed bool) (domain.Todo, error)
	EditTodoText(ctx context.Context, sprintID, date, todoID, text string) error
	DeleteTodo(ctx context.Context, sprintID, date, todoID string) error
	ReorderTodos(ctx context.Context, sprintID, date string, ids []string) error

	AddSubtask(ctx context.Context, sprintID, date, todoID, subtaskID, text string) error
	ToggleSubtask(ctx context.Context, sprintID, date, todoID, subtaskID string) error
	DeleteSubtask(ctx context.Context, sprintID, date, todoID, subtaskID string) error
	ReorderSubtasks(ctx context.Context, sprintID, date, todoID string, ids []string) error

	AddRecurring(ctx context.Context, sprintID string, d domain.TodoDraft) (domain.RecurringBatch, error)
	RemoveRecurringGroup(ctx context.Context, sprintID, groupID string) (int, error)

	AddLocation(ctx context.Context, sprintID, date string, d domain.LocationDraft) (domain.TravelLog, error)
	RemoveLocation(ctx context.Context, sprintID, date, locationID string) (domain.TravelLog, error)
	SetPhoto(ctx context.Context, sprintID, date string, photo *string) (domain.TravelLog, error)
}
