package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"sprint_id", "sprint_name", "sprint_start_date", "sprint_end_date",
	"date", "todo_text", "priority", "time", "completed", "recurring",
	"group_id", "subtasks_done", "subtasks_total", "locations",
}

// GetExport implements GET /sprints/{sprintID}/export.
// It returns one row per todo, and one row for each day without todos.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := queryParam(r, "format", &format); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	rows, err := s.export.Export(r.Context(), owner(r), chi.URLParam(r, "sprintID"))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}

	if format != nil && *format == "csv" {
		writeCSV(w, chi.URLParam(r, "sprintID"), rows)
		return
	}
	out := make([]api.ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToAPIRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV sends rows as a CSV attachment named after the sprint.
// Location names within a row are joined with "|".
func writeCSV(w http.ResponseWriter, sprintID string, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="jetjot-`+sprintID+`.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// domainRowToAPIRow maps a domain.ExportRow to the wire type.
// Todo fields that are empty strings become nil pointers (omitempty in JSON).
func domainRowToAPIRow(r domain.ExportRow) api.ExportRow {
	row := api.ExportRow{
		SprintID:        r.SprintID,
		SprintName:      r.SprintName,
		SprintStartDate: mustParseDate(r.SprintStartDate),
		SprintEndDate:   mustParseDate(r.SprintEndDate),
		Date:            mustParseDate(r.Date),
		TodoText:        optional(r.TodoText),
		Priority:        optional(r.Priority),
		Time:            optional(r.Time),
		Completed:       r.Completed,
		Recurring:       r.Recurring,
		GroupID:         optional(r.GroupID),
		SubtasksDone:    r.SubtasksDone,
		SubtasksTotal:   r.SubtasksTotal,
		Locations:       r.Locations,
	}
	if row.Locations == nil {
		row.Locations = []string{}
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.SprintID,
		r.SprintName,
		r.SprintStartDate,
		r.SprintEndDate,
		r.Date,
		r.TodoText,
		r.Priority,
		r.Time,
		strconv.FormatBool(r.Completed),
		strconv.FormatBool(r.Recurring),
		r.GroupID,
		strconv.Itoa(r.SubtasksDone),
		strconv.Itoa(r.SubtasksTotal),
		strings.Join(r.Locations, "|"),
	}
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-generated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
