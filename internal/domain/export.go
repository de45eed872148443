package domain

// ExportRow is a single row in a sprint export.
// It is a flat, denormalized view: one row per todo, with sprint fields
// repeated on every row. Days with no todos yield one row with zero values for
// all todo fields, so every calendar day of the sprint appears.
//
// Locations holds the names of the day's travel-log pins in order.
type ExportRow struct {
	// Sprint fields, repeated on every row.
	SprintID        string
	SprintName      string
	SprintStartDate string // "2006-01-02"
	SprintEndDate   string

	Date string

	// Todo fields, zero values when the day has no todos.
	TodoText      string
	Priority      string
	Time          string
	Completed     bool
	Recurring     bool
	GroupID       string
	SubtasksDone  int
	SubtasksTotal int

	Locations []string
}
