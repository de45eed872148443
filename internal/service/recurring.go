package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// RecurringService fans one todo out across every day of a sprint and removes
// such groups again. Both directions are a single atomic multi-day write.
// It has no notion of an undo window; RemoveGroup may be called at any time.
type RecurringService struct {
	repo repo.SprintRepo
	now  func() time.Time
}

// NewRecurringService constructs a RecurringService.
func NewRecurringService(r repo.SprintRepo) *RecurringService {
	return &RecurringService{repo: r, now: time.Now}
}

// AddRecurring appends one todo to every day key of the sprint, all sharing
// one group id, and returns the group id with the todo created per day.
// Repeating a request with a group id that already has members writes nothing
// and returns the stored members, so a retried add cannot duplicate ids.
func (s *RecurringService) AddRecurring(ctx context.Context, owner, id string, d domain.TodoDraft) (domain.RecurringBatch, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("service.RecurringService.AddRecurring: %w", err)
	}

	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("service.RecurringService.AddRecurring: %w", err)
	}

	if d.GroupID != uuid.Nil {
		if existing, ok := domain.FindBatch(sp.Days, d.GroupID.String()); ok {
			return existing, nil
		}
	}
	batch := domain.NewRecurringBatch(sp.Days.Keys(), d, s.now())
	if err := domain.CheckBatch(sp.Days, batch); err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("service.RecurringService.AddRecurring: %w", err)
	}
	if err := s.repo.ReplaceDays(ctx, owner, id, domain.ApplyBatch(sp.Days, batch)); err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("service.RecurringService.AddRecurring: %w", err)
	}
	return batch, nil
}

// RemoveGroup drops every todo of the group from every day and returns how
// many were removed. Removing an empty or already removed group succeeds
// without writing.
func (s *RecurringService) RemoveGroup(ctx context.Context, owner, id, groupID string) (int, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return 0, fmt.Errorf("service.RecurringService.RemoveGroup: %w: group id is required", domain.ErrValidation)
	}

	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return 0, fmt.Errorf("service.RecurringService.RemoveGroup: %w", err)
	}

	patch := domain.RemoveGroup(sp.Days, groupID)
	if len(patch) == 0 {
		return 0, nil
	}

	removed := 0
	for date, todos := range patch {
		removed += len(sp.Days[date]) - len(todos)
	}
	if err := s.repo.ReplaceDays(ctx, owner, id, patch); err != nil {
		return 0, fmt.Errorf("service.RecurringService.RemoveGroup: %w", err)
	}
	return removed, nil
}
