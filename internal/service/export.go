package service

import (
	"context"
	"fmt"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// ExportService assembles a flat export of one sprint.
type ExportService struct {
	sprints repo.SprintRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(sprints repo.SprintRepo) *ExportService {
	return &ExportService{sprints: sprints}
}

// Export returns one ExportRow per todo, in day order and then in the
// order of each day. Days with no todos contribute one row with empty todo
// fields.
func (s *ExportService) Export(ctx context.Context, owner, id string) ([]domain.ExportRow, error) {
	sp, err := s.sprints.Get(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return exportRows(sp), nil
}

func exportRows(sp domain.Sprint) []domain.ExportRow {
	base := domain.ExportRow{
		SprintID:        sp.ID,
		SprintName:      sp.Name,
		SprintStartDate: domain.DateKey(sp.StartDate),
		SprintEndDate:   domain.DateKey(sp.EndDate),
	}

	var rows []domain.ExportRow
	for _, date := range sp.Days.Keys() {
		dayRow := base
		dayRow.Date = date
		for _, l := range sp.TravelLog.Day(date).Locations {
			dayRow.Locations = append(dayRow.Locations, l.Name)
		}

		todos := sp.Days[date]
		if len(todos) == 0 {
			rows = append(rows, dayRow)
			continue
		}
		for _, t := range todos {
			row := dayRow
			row.TodoText = t.Text
			row.Priority = string(t.Priority)
			row.Time = t.Time
			row.Completed = t.Completed
			row.Recurring = t.Recurring
			row.GroupID = t.RecurringGroupID
			row.SubtasksTotal = len(t.Subtasks)
			for _, st := range t.Subtasks {
				if st.Completed {
					row.SubtasksDone++
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
