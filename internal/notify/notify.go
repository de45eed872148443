// Package notify delivers due todo reminders.
package notify

import (
	"context"
	"log/slog"

	"github.com/pkordes/jetjot/internal/domain"
)

// Notifier delivers one reminder. Implementations must be safe for
// concurrent use; reminder timers fire on their own goroutines.
type Notifier interface {
	Notify(ctx context.Context, r domain.Reminder) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, r domain.Reminder) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, r domain.Reminder) error { return f(ctx, r) }

// Log writes every reminder as an info line.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier. A nil logger uses slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs r.
func (l *Log) Notify(ctx context.Context, r domain.Reminder) error {
	l.logger.InfoContext(ctx, "reminder",
		"sprint_id", r.SprintID,
		"date", r.Date,
		"todo_id", r.TodoID,
		"text", r.Text,
		"fire_at", r.FireAt,
	)
	return nil
}
