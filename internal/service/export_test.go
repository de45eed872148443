package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/service"
)

func TestExportService_Export_RowsInDayOrder(t *testing.T) {
	sp := sprintFixture()
	sp.Name = "Road trip"
	sp.Days["2025-06-01"] = []domain.Todo{
		{ID: "a", Text: "pack", Priority: domain.PriorityHigh, Completed: true,
			Subtasks: []domain.Subtask{{ID: "s1", Completed: true}, {ID: "s2"}}},
		{ID: "b", Text: "fuel", Priority: domain.PriorityLow, Time: "08:00"},
	}
	sp.Days["2025-06-03"] = []domain.Todo{{ID: "c", Text: "unpack", Recurring: true, RecurringGroupID: "g1"}}
	sp.TravelLog = domain.TravelLog{
		"2025-06-01": {Locations: []domain.Location{{ID: "l1", Name: "Home"}, {ID: "l2", Name: "Bend"}}},
	}
	r, doc, _ := docRepo(sp)

	rows, err := service.NewExportService(r).Export(context.Background(), "alice", doc.ID)

	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "2025-06-01", rows[0].Date)
	assert.Equal(t, "pack", rows[0].TodoText)
	assert.Equal(t, 1, rows[0].SubtasksDone)
	assert.Equal(t, 2, rows[0].SubtasksTotal)
	assert.Equal(t, []string{"Home", "Bend"}, rows[0].Locations)
	assert.Equal(t, "fuel", rows[1].TodoText)
	assert.Equal(t, "08:00", rows[1].Time)

	assert.Equal(t, "2025-06-02", rows[2].Date)
	assert.Empty(t, rows[2].TodoText, "empty day still yields a row")

	assert.Equal(t, "g1", rows[3].GroupID)
	assert.True(t, rows[3].Recurring)

	for _, row := range rows {
		assert.Equal(t, "Road trip", row.SprintName)
		assert.Equal(t, "2025-06-01", row.SprintStartDate)
		assert.Equal(t, "2025-06-03", row.SprintEndDate)
	}
}

func TestExportService_Export_NotFound(t *testing.T) {
	r, _, _ := docRepo(sprintFixture())

	_, err := service.NewExportService(r).Export(context.Background(), "alice", "20990101_20990102")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
