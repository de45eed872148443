// Package api holds the JSON wire types of the JetJot HTTP API. The handler
// package encodes them and the client package decodes them, so both sides of
// the boundary share one definition.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/jetjot/internal/domain"
)

// ErrorDetail is the machine-readable code plus a message for display.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Error codes used in ErrorDetail.Code.
const (
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodeRateLimited        = "rate_limited"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeAccountDisabled    = "account_disabled"
	CodeForbidden          = "forbidden"
	CodeUnavailable        = "backend_unavailable"
	CodeTooLarge           = "request_too_large"
	CodeInternal           = "internal_error"
)

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ---- auth ------------------------------------------------------------------

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsNew    bool   `json:"is_new"`
	IsAdmin  bool   `json:"is_admin"`
}

type RateLimitResponse struct {
	Attempts  int        `json:"attempts"`
	Remaining int        `json:"remaining"`
	ResetsAt  *time.Time `json:"resets_at"`
}

// ---- sprints ---------------------------------------------------------------

type CreateSprintRequest struct {
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	Name      *string            `json:"name,omitempty"`
}

type RenameSprintRequest struct {
	Name string `json:"name"`
}

// Sprint is the full sprint document.
type Sprint struct {
	ID        string             `json:"id"`
	Owner     string             `json:"owner"`
	Name      string             `json:"name"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	Days      domain.Days        `json:"days"`
	TravelLog domain.TravelLog   `json:"travel_log"`
	CreatedAt time.Time          `json:"created_at"`
}

// SprintFromDomain converts a stored sprint to its wire form.
func SprintFromDomain(s domain.Sprint) Sprint {
	days := s.Days
	if days == nil {
		days = domain.Days{}
	}
	log := s.TravelLog
	if log == nil {
		log = domain.TravelLog{}
	}
	return Sprint{
		ID:        s.ID,
		Owner:     s.Owner,
		Name:      s.Name,
		StartDate: openapi_types.Date{Time: s.StartDate},
		EndDate:   openapi_types.Date{Time: s.EndDate},
		Days:      days,
		TravelLog: log,
		CreatedAt: s.CreatedAt,
	}
}

// ToDomain converts the wire form back to a domain.Sprint.
func (s Sprint) ToDomain() domain.Sprint {
	days := s.Days
	if days == nil {
		days = domain.Days{}
	}
	log := s.TravelLog
	if log == nil {
		log = domain.TravelLog{}
	}
	return domain.Sprint{
		ID:        s.ID,
		Owner:     s.Owner,
		Name:      s.Name,
		StartDate: s.StartDate.Time,
		EndDate:   s.EndDate.Time,
		Days:      days,
		TravelLog: log,
		CreatedAt: s.CreatedAt,
	}
}

type SprintList struct {
	Data []domain.SprintSummary `json:"data"`
}

// ---- todos -----------------------------------------------------------------

type TodoRequest struct {
	ID       *string `json:"id,omitempty"`
	Text     string  `json:"text"`
	Priority *string `json:"priority,omitempty"`
	Time     *string `json:"time,omitempty"`
}

// Draft converts the request to a domain draft.
func (r TodoRequest) Draft() domain.TodoDraft {
	d := domain.TodoDraft{Text: r.Text}
	if r.ID != nil {
		d.ID = *r.ID
	}
	if r.Priority != nil {
		d.Priority = domain.Priority(*r.Priority)
	}
	if r.Time != nil {
		d.Time = *r.Time
	}
	return d
}

type EditTodoRequest struct {
	Text string `json:"text"`
}

// ToggleRequest is the optional body of a todo toggle. With Completed set the
// flag is forced to that value; without it the flag is flipped.
type ToggleRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// Day is one day bucket.
type Day struct {
	Date  string        `json:"date"`
	Todos []domain.Todo `json:"todos"`
}

type SubtaskRequest struct {
	ID   *string `json:"id,omitempty"`
	Text string  `json:"text"`
}

// ---- recurring -------------------------------------------------------------

type RecurringRequest struct {
	GroupID  *openapi_types.UUID `json:"group_id,omitempty"`
	Text     string              `json:"text"`
	Priority *string             `json:"priority,omitempty"`
	Time     *string             `json:"time,omitempty"`
}

// Draft converts the request to a domain draft.
func (r RecurringRequest) Draft() domain.TodoDraft {
	d := TodoRequest{Text: r.Text, Priority: r.Priority, Time: r.Time}.Draft()
	if r.GroupID != nil {
		d.GroupID = *r.GroupID
	}
	return d
}

type RemoveGroupResponse struct {
	Removed int `json:"removed"`
}

// ---- travel log ------------------------------------------------------------

type LocationRequest struct {
	ID   *string `json:"id,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name *string `json:"name,omitempty"`
}

// Draft converts the request to a domain draft.
func (r LocationRequest) Draft() domain.LocationDraft {
	d := domain.LocationDraft{Lat: r.Lat, Lng: r.Lng}
	if r.ID != nil {
		d.ID = *r.ID
	}
	if r.Name != nil {
		d.Name = *r.Name
	}
	return d
}

// PhotoRequest sets a cover photo; a null photo clears it.
type PhotoRequest struct {
	Photo *string `json:"photo"`
}

// TravelLogResponse carries the whole stored travel log after a write.
type TravelLogResponse struct {
	TravelLog domain.TravelLog `json:"travel_log"`
}

type WeatherResponse struct {
	Days []domain.DayWeather `json:"days"`
}

// ---- export ----------------------------------------------------------------

type ExportRow struct {
	SprintID        string             `json:"sprint_id"`
	SprintName      string             `json:"sprint_name"`
	SprintStartDate openapi_types.Date `json:"sprint_start_date"`
	SprintEndDate   openapi_types.Date `json:"sprint_end_date"`
	Date            openapi_types.Date `json:"date"`
	TodoText        *string            `json:"todo_text,omitempty"`
	Priority        *string            `json:"priority,omitempty"`
	Time            *string            `json:"time,omitempty"`
	Completed       bool               `json:"completed"`
	Recurring       bool               `json:"recurring"`
	GroupID         *string            `json:"group_id,omitempty"`
	SubtasksDone    int                `json:"subtasks_done"`
	SubtasksTotal   int                `json:"subtasks_total"`
	Locations       []string           `json:"locations"`
}

// ---- admin -----------------------------------------------------------------

type UserList struct {
	Data       []domain.UserSummary `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// FlagRequest sets a boolean account flag.
type FlagRequest struct {
	Value bool `json:"value"`
}

type DeleteUserResponse struct {
	SprintsDeleted int64 `json:"sprints_deleted"`
}
