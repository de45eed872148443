package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/handler"
	"github.com/pkordes/jetjot/internal/ratelimit"
	"github.com/pkordes/jetjot/internal/service"
	"github.com/pkordes/jetjot/internal/token"
)

// ---- mock servicers --------------------------------------------------------
// Each mock is a hand-written test double; set only the function fields your
// test needs.

type mockAuthServicer struct {
	login  func(ctx context.Context, username, password string) (domain.Session, error)
	status func(username string) ratelimit.Status
}

func (m *mockAuthServicer) LoginOrCreate(ctx context.Context, u, p string) (domain.Session, error) {
	return m.login(ctx, u, p)
}
func (m *mockAuthServicer) RateLimitStatus(u string) ratelimit.Status { return m.status(u) }

var _ handler.AuthServicer = (*mockAuthServicer)(nil)

type mockSprintServicer struct {
	loadOrCreate    func(ctx context.Context, owner string, start, end time.Time, name string) (domain.Sprint, bool, error)
	get             func(ctx context.Context, owner, id string) (domain.Sprint, error)
	getShared       func(ctx context.Context, owner, id string) (domain.Sprint, error)
	list            func(ctx context.Context, owner string) ([]domain.SprintSummary, error)
	rename          func(ctx context.Context, owner, id, name string) (domain.Sprint, error)
	delete          func(ctx context.Context, owner, id string) error
	addTodo         func(ctx context.Context, owner, id, date string, d domain.TodoDraft) (domain.Todo, error)
	toggleTodo      func(ctx context.Context, owner, id, date, todoID string) (domain.Todo, error)
	setCompleted    func(ctx context.Context, owner, id, date, todoID string, completed bool) (domain.Todo, error)
	editTodoText    func(ctx context.Context, owner, id, date, todoID, text string) (domain.Todo, error)
	deleteTodo      func(ctx context.Context, owner, id, date, todoID string) error
	reorderTodos    func(ctx context.Context, owner, id, date string, ids []string) ([]domain.Todo, error)
	addSubtask      func(ctx context.Context, owner, id, date, todoID, subtaskID, text string) (domain.Todo, error)
	toggleSubtask   func(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error)
	deleteSubtask   func(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error)
	reorderSubtasks func(ctx context.Context, owner, id, date, todoID string, ids []string) (domain.Todo, error)
}

func (m *mockSprintServicer) LoadOrCreate(ctx context.Context, owner string, start, end time.Time, name string) (domain.Sprint, bool, error) {
	return m.loadOrCreate(ctx, owner, start, end, name)
}
func (m *mockSprintServicer) Get(ctx context.Context, owner, id string) (domain.Sprint, error) {
	return m.get(ctx, owner, id)
}
func (m *mockSprintServicer) GetShared(ctx context.Context, owner, id string) (domain.Sprint, error) {
	return m.getShared(ctx, owner, id)
}
func (m *mockSprintServicer) List(ctx context.Context, owner string) ([]domain.SprintSummary, error) {
	return m.list(ctx, owner)
}
func (m *mockSprintServicer) Rename(ctx context.Context, owner, id, name string) (domain.Sprint, error) {
	return m.rename(ctx, owner, id, name)
}
func (m *mockSprintServicer) Delete(ctx context.Context, owner, id string) error {
	return m.delete(ctx, owner, id)
}
func (m *mockSprintServicer) AddTodo(ctx context.Context, owner, id, date string, d domain.TodoDraft) (domain.Todo, error) {
	return m.addTodo(ctx, owner, id, date, d)
}
func (m *mockSprintServicer) ToggleTodo(ctx context.Context, owner, id, date, todoID string) (domain.Todo, error) {
	return m.toggleTodo(ctx, owner, id, date, todoID)
}
func (m *mockSprintServicer) SetTodoCompleted(ctx context.Context, owner, id, date, todoID string, completed bool) (domain.Todo, error) {
	return m.setCompleted(ctx, owner, id, date, todoID, completed)
}
func (m *mockSprintServicer) EditTodoText(ctx context.Context, owner, id, date, todoID, text string) (domain.Todo, error) {
	return m.editTodoText(ctx, owner, id, date, todoID, text)
}
func (m *mockSprintServicer) DeleteTodo(ctx context.Context, owner, id, date, todoID string) error {
	return m.deleteTodo(ctx, owner, id, date, todoID)
}
func (m *mockSprintServicer) ReorderTodos(ctx context.Context, owner, id, date string, ids []string) ([]domain.Todo, error) {
	return m.reorderTodos(ctx, owner, id, date, ids)
}
func (m *mockSprintServicer) AddSubtask(ctx context.Context, owner, id, date, todoID, subtaskID, text string) (domain.Todo, error) {
	return m.addSubtask(ctx, owner, id, date, todoID, subtaskID, text)
}
func (m *mockSprintServicer) ToggleSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error) {
	return m.toggleSubtask(ctx, owner, id, date, todoID, subtaskID)
}
func (m *mockSprintServicer) DeleteSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error) {
	return m.deleteSubtask(ctx, owner, id, date, todoID, subtaskID)
}
func (m *mockSprintServicer) ReorderSubtasks(ctx context.Context, owner, id, date, todoID string, ids []string) (domain.Todo, error) {
	return m.reorderSubtasks(ctx, owner, id, date, todoID, ids)
}

var _ handler.SprintServicer = (*mockSprintServicer)(nil)

type mockRecurringServicer struct {
	add    func(ctx context.Context, owner, id string, d domain.TodoDraft) (domain.RecurringBatch, error)
	remove func(ctx context.Context, owner, id, groupID string) (int, error)
}

func (m *mockRecurringServicer) AddRecurring(ctx context.Context, owner, id string, d domain.TodoDraft) (domain.RecurringBatch, error) {
	return m.add(ctx, owner, id, d)
}
func (m *mockRecurringServicer) RemoveGroup(ctx context.Context, owner, id, groupID string) (int, error) {
	return m.remove(ctx, owner, id, groupID)
}

var _ handler.RecurringServicer = (*mockRecurringServicer)(nil)

type mockTravelServicer struct {
	addLocation    func(ctx context.Context, owner, id, date string, d domain.LocationDraft) (domain.TravelLog, error)
	removeLocation func(ctx context.Context, owner, id, date, locationID string) (domain.TravelLog, error)
	setPhoto       func(ctx context.Context, owner, id, date string, photo *string) (domain.TravelLog, error)
	route          func(ctx context.Context, owner, id string) (domain.Route, error)
}

func (m *mockTravelServicer) AddLocation(ctx context.Context, owner, id, date string, d domain.LocationDraft) (domain.TravelLog, error) {
	return m.addLocation(ctx, owner, id, date, d)
}
func (m *mockTravelServicer) RemoveLocation(ctx context.Context, owner, id, date, locationID string) (domain.TravelLog, error) {
	return m.removeLocation(ctx, owner, id, date, locationID)
}
func (m *mockTravelServicer) SetPhoto(ctx context.Context, owner, id, date string, photo *string) (domain.TravelLog, error) {
	return m.setPhoto(ctx, owner, id, date, photo)
}
func (m *mockTravelServicer) Route(ctx context.Context, owner, id string) (domain.Route, error) {
	return m.route(ctx, owner, id)
}

var _ handler.TravelLogServicer = (*mockTravelServicer)(nil)

type mockWeatherServicer struct {
	forSprint func(ctx context.Context, owner, id string, at *service.Coordinates) ([]domain.DayWeather, error)
}

func (m *mockWeatherServicer) ForSprint(ctx context.Context, owner, id string, at *service.Coordinates) ([]domain.DayWeather, error) {
	return m.forSprint(ctx, owner, id, at)
}

var _ handler.WeatherServicer = (*mockWeatherServicer)(nil)

type mockExportServicer struct {
	export func(ctx context.Context, owner, id string) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, owner, id string) ([]domain.ExportRow, error) {
	return m.export(ctx, owner, id)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

type mockAdminServicer struct {
	listUsers   func(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error)
	setDisabled func(ctx context.Context, actor, username string, disabled bool) error
	setAdmin    func(ctx context.Context, actor, username string, admin bool) error
	deleteUser  func(ctx context.Context, actor, username string) (int64, error)
}

func (m *mockAdminServicer) ListUsers(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	return m.listUsers(ctx, p)
}
func (m *mockAdminServicer) SetDisabled(ctx context.Context, actor, username string, disabled bool) error {
	return m.setDisabled(ctx, actor, username, disabled)
}
func (m *mockAdminServicer) SetAdmin(ctx context.Context, actor, username string, admin bool) error {
	return m.setAdmin(ctx, actor, username, admin)
}
func (m *mockAdminServicer) DeleteUser(ctx context.Context, actor, username string) (int64, error) {
	return m.deleteUser(ctx, actor, username)
}

var _ handler.AdminServicer = (*mockAdminServicer)(nil)

// ---- helpers ---------------------------------------------------------------

var testTokens = token.NewIssuer("handler-test-secret", time.Hour)

// newHTTPHandler wires a Server with the given services into its router.
// The token issuer is always the shared test issuer.
func newHTTPHandler(deps handler.Services) http.Handler {
	deps.Tokens = testTokens
	return handler.NewServer(deps).Routes()
}

// bearerFor issues a token for username.
func bearerFor(t *testing.T, username string, admin bool) string {
	t.Helper()
	tok, err := testTokens.Issue(domain.Session{Username: username, IsAdmin: admin})
	require.NoError(t, err)
	return "Bearer " + tok
}

// do sends one request as alice (or anonymously when auth is empty) and
// returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, body io.Reader, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func sprintFixture() domain.Sprint {
	return domain.NewSprint("alice",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		"", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC))
}
