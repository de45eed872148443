package syncengine

import (
	"context"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
)

// pendingUndo is the one recurring batch that can still be undone.
type pendingUndo struct {
	sprintID string
	groupID  string
	timer    *time.Timer
}

type scheduledReminder struct {
	reminder domain.Reminder
	timer    *time.Timer
}

// ---- undo ------------------------------------------------------------------

// startUndoLocked replaces any pending undo with groupID.
func (e *Engine) startUndoLocked(sprintID, groupID string) {
	e.clearUndoLocked()
	u := &pendingUndo{sprintID: sprintID, groupID: groupID}
	u.timer = time.AfterFunc(e.undoWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.undo == u {
			e.undo = nil
		}
	})
	e.undo = u
}

func (e *Engine) clearUndoLocked() {
	if e.undo != nil {
		e.undo.timer.Stop()
		e.undo = nil
	}
}

// PendingUndo returns the group id Undo would remove, if the window is open.
func (e *Engine) PendingUndo() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.undo == nil {
		return "", false
	}
	return e.undo.groupID, true
}

// Undo removes the most recent recurring batch while its window is open.
// It reports false when there was nothing to undo.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.undo
	if u == nil {
		return false
	}
	e.clearUndoLocked()
	if !e.isActiveLocked(u.sprintID) {
		return false
	}
	e.removeGroupLocked(u.sprintID, u.groupID)
	return true
}

// DismissUndo closes the undo window early.
func (e *Engine) DismissUndo() {
	e.mu.Lock()
	e.clearUndoLocked()
	e.mu.Unlock()
}

// ---- reminders -------------------------------------------------------------

// RescheduleReminders cancels every pending reminder and schedules one per
// incomplete timed todo of the active sprint that is still in the future.
// It returns the number scheduled.
func (e *Engine) RescheduleReminders() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduleRemindersLocked()
	return len(e.reminders)
}

// Reminders lists the pending reminders in fire order.
func (e *Engine) Reminders() []domain.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Reminder, 0, len(e.reminders))
	for _, sr := range e.reminders {
		out = append(out, sr.reminder)
	}
	return out
}

func (e *Engine) scheduleRemindersLocked() {
	e.cancelRemindersLocked()
	if e.sprint == nil {
		return
	}
	now := e.now()
	for _, r := range domain.Reminders(*e.sprint, e.loc, now) {
		sr := scheduledReminder{reminder: r}
		sr.timer = time.AfterFunc(r.FireAt.Sub(now), func() { e.fire(r) })
		e.reminders = append(e.reminders, sr)
	}
	e.logger.Debug("reminders scheduled", "sprint_id", e.sprint.ID, "count", len(e.reminders))
}

func (e *Engine) cancelRemindersLocked() {
	for _, sr := range e.reminders {
		sr.timer.Stop()
	}
	e.reminders = nil
}

// fire delivers r unless it was cancelled after its timer had already started.
func (e *Engine) fire(r domain.Reminder) {
	e.mu.Lock()
	found := false
	for i, sr := range e.reminders {
		if sr.reminder == r {
			e.reminders = append(e.reminders[:i:i], e.reminders[i+1:]...)
			found = true
			break
		}
	}
	e.mu.Unlock()
	if !found {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
	defer cancel()
	if err := e.notifier.Notify(ctx, r); err != nil {
		e.logger.Warn("reminder delivery failed", "sprint_id", r.SprintID, "todo_id", r.TodoID, "error", err)
	}
}
