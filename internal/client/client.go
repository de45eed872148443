// Package client is a typed HTTP client for the JetJot API. It implements
// syncengine.Backend for the signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/service"
	"github.com/pkordes/jetjot/internal/syncengine"
)

var _ syncengine.Backend = (*Client)(nil)

// Client talks to one JetJot server. Login stores the session token used by
// every later call. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a Client for baseURL. timeout bounds each request; zero means
// no limit beyond the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs a session token obtained elsewhere.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// ---- auth ------------------------------------------------------------------

// Login signs in, provisioning the account on first use, and keeps the token.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var resp api.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", api.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return domain.Session{}, fmt.Errorf("client.Client.Login: %w", err)
	}
	c.SetToken(resp.Token)
	return domain.Session{Username: resp.Username, IsNew: resp.IsNew, IsAdmin: resp.IsAdmin}, nil
}

// RateLimit returns the login attempts left for username.
func (c *Client) RateLimit(ctx context.Context, username string) (api.RateLimitResponse, error) {
	var resp api.RateLimitResponse
	q := url.Values{"username": {username}}
	if err := c.do(ctx, http.MethodGet, "/auth/rate-limit?"+q.Encode(), nil, &resp); err != nil {
		return api.RateLimitResponse{}, fmt.Errorf("client.Client.RateLimit: %w", err)
	}
	return resp, nil
}

// ---- sprints ---------------------------------------------------------------

// List returns the caller's sprints, newest first.
func (c *Client) List(ctx context.Context) ([]domain.SprintSummary, error) {
	var resp api.SprintList
	if err := c.do(ctx, http.MethodGet, "/sprints", nil, &resp); err != nil {
		return nil, fmt.Errorf("client.Client.List: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) LoadOrCreate(ctx context.Context, start, end time.Time, name string) (domain.Sprint, error) {
	req := api.CreateSprintRequest{
		StartDate: openapi_types.Date{Time: start},
		EndDate:   openapi_types.Date{Time: end},
		Name:      optional(name),
	}
	var resp api.Sprint
	if err := c.do(ctx, http.MethodPost, "/sprints", req, &resp); err != nil {
		return domain.Sprint{}, fmt.Errorf("client.Client.LoadOrCreate: %w", err)
	}
	return resp.ToDomain(), nil
}

func (c *Client) Get(ctx context.Context, sprintID string) (domain.Sprint, error) {
	var resp api.Sprint
	if err := c.do(ctx, http.MethodGet, sprintPath(sprintID), nil, &resp); err != nil {
		return domain.Sprint{}, fmt.Errorf("client.Client.Get: %w", err)
	}
	return resp.ToDomain(), nil
}

// GetShared reads another user's sprint.
func (c *Client) GetShared(ctx context.Context, owner, sprintID string) (domain.Sprint, error) {
	var resp api.Sprint
	path := "/shared/" + url.PathEscape(owner) + "/" + url.PathEscape(sprintID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return domain.Sprint{}, fmt.Errorf("client.Client.GetShared: %w", err)
	}
	return resp.ToDomain(), nil
}

func (c *Client) Rename(ctx context.Context, sprintID, name string) error {
	if err := c.do(ctx, http.MethodPatch, sprintPath(sprintID), api.RenameSprintRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("client.Client.Rename: %w", err)
	}
	return nil
}

// Delete removes a sprint of the caller.
func (c *Client) Delete(ctx context.Context, sprintID string) error {
	if err := c.do(ctx, http.MethodDelete, sprintPath(sprintID), nil, nil); err != nil {
		return fmt.Errorf("client.Client.Delete: %w", err)
	}
	return nil
}

// Route returns the mappable pins of a sprint.
func (c *Client) Route(ctx context.Context, sprintID string) (domain.Route, error) {
	var resp domain.Route
	if err := c.do(ctx, http.MethodGet, sprintPath(sprintID)+"/route", nil, &resp); err != nil {
		return domain.Route{}, fmt.Errorf("client.Client.Route: %w", err)
	}
	return resp, nil
}

// Weather returns the daily weather for a sprint; at may be nil.
func (c *Client) Weather(ctx context.Context, sprintID string, at *service.Coordinates) ([]domain.DayWeather, error) {
	path := sprintPath(sprintID) + "/weather"
	if at != nil {
		q := url.Values{
			"lat": {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
			"lng": {strconv.FormatFloat(at.Lng, 'f', -1, 64)},
		}
		path += "?" + q.Encode()
	}
	var resp api.WeatherResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("client.Client.Weather: %w", err)
	}
	return resp.Days, nil
}

// ---- todos -----------------------------------------------------------------

func (c *Client) AddTodo(ctx context.Context, sprintID, date string, d domain.TodoDraft) (domain.Todo, error) {
	req := api.TodoRequest{
		ID:       optional(d.ID),
		Text:     d.Text,
		Priority: optional(string(d.Priority)),
		Time:     optional(d.Time),
	}
	var resp domain.Todo
	if err := c.do(ctx, http.MethodPost, dayPath(sprintID, date)+"/todos", req, &resp); err != nil {
		return domain.Todo{}, fmt.Errorf("client.Client.AddTodo: %w", err)
	}
	return resp, nil
}

func (c *Client) SetTodoCompleted(ctx context.Context, sprintID, date, todoID string, completed bool) (domain.Todo, error) {
	var resp domain.Todo
	req := api.ToggleRequest{Completed: &completed}
	if err := c.do(ctx, http.MethodPost, todoPath(sprintID, date, todoID)+"/toggle", req, &resp); err != nil {
		return domain.Todo{}, fmt.Errorf("client.Client.SetTodoCompleted: %w", err)
	}
	return resp, nil
}

func (c *Client) EditTodoText(ctx context.Context, sprintID, date, todoID, text string) error {
	if err := c.do(ctx, http.MethodPatch, todoPath(sprintID, date, todoID), api.EditTodoRequest{Text: text}, nil); err != nil {
		return fmt.Errorf("client.Client.EditTodoText: %w", err)
	}
	return nil
}

func (c *Client) DeleteTodo(ctx context.Context, sprintID, date, todoID string) error {
	if err := c.do(ctx, http.MethodDelete, todoPath(sprintID, date, todoID), nil, nil); err != nil {
		return fmt.Errorf("client.Client.DeleteTodo: %w", err)
	}
	return nil
}

func (c *Client) ReorderTodos(ctx context.Context, sprintID, date string, ids []string) error {
	if err := c.do(ctx, http.MethodPut, dayPath(sprintID, date)+"/order", api.ReorderRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("client.Client.ReorderTodos: %w", err)
	}
	return nil
}

// ---- subtasks --------------------------------------------------------------

func (c *Client) AddSubtask(ctx context.Context, sprintID, date, todoID, subtaskID, text string) error {
	req := api.SubtaskRequest{ID: optional(subtaskID), Text: text}
	if err := c.do(ctx, http.MethodPost, todoPath(sprintID, date, todoID)+"/subtasks", req, nil); err != nil {
		return fmt.Errorf("client.Client.AddSubtask: %w", err)
	}
	return nil
}

func (c *Client) ToggleSubtask(ctx context.Context, sprintID, date, todoID, subtaskID string) error {
	path := todoPath(sprintID, date, todoID) + "/subtasks/" + url.PathEscape(subtaskID) + "/toggle"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("client.Client.ToggleSubtask: %w", err)
	}
	return nil
}

func (c *Client) DeleteSubtask(ctx context.Context, sprintID, date, todoID, subtaskID string) error {
	path := todoPath(sprintID, date, todoID) + "/subtasks/" + url.PathEscape(subtaskID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("client.Client.DeleteSubtask: %w", err)
	}
	return nil
}

func (c *Client) ReorderSubtasks(ctx context.Context, sprintID, date, todoID string, ids []string) error {
	path := todoPath(sprintID, date, todoID) + "/subtasks/order"
	if err := c.do(ctx, http.MethodPut, path, api.ReorderRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("client.Client.ReorderSubtasks: %w", err)
	}
	return nil
}

// ---- recurring -------------------------------------------------------------

func (c *Client) AddRecurring(ctx context.Context, sprintID string, d domain.TodoDraft) (domain.RecurringBatch, error) {
	req := api.RecurringRequest{
		Text:     d.Text,
		Priority: optional(string(d.Priority)),
		Time:     optional(d.Time),
	}
	if gid := d.GroupID; gid != (openapi_types.UUID{}) {
		req.GroupID = &gid
	}
	var resp domain.RecurringBatch
	if err := c.do(ctx, http.MethodPost, sprintPath(sprintID)+"/recurring", req, &resp); err != nil {
		return domain.RecurringBatch{}, fmt.Errorf("client.Client.AddRecurring: %w", err)
	}
	return resp, nil
}

func (c *Client) RemoveRecurringGroup(ctx context.Context, sprintID, groupID string) (int, error) {
	var resp api.RemoveGroupResponse
	path := sprintPath(sprintID) + "/recurring/" + url.PathEscape(groupID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("client.Client.RemoveRecurringGroup: %w", err)
	}
	return resp.Removed, nil
}

// ---- travel log ------------------------------------------------------------

func (c *Client) AddLocation(ctx context.Context, sprintID, date string, d domain.LocationDraft) (domain.TravelLog, error) {
	req := api.LocationRequest{ID: optional(d.ID), Lat: d.Lat, Lng: d.Lng, Name: optional(d.Name)}
	var resp api.TravelLogResponse
	if err := c.do(ctx, http.MethodPost, dayPath(sprintID, date)+"/locations", req, &resp); err != nil {
		return nil, fmt.Errorf("client.Client.AddLocation: %w", err)
	}
	return resp.TravelLog, nil
}

func (c *Client) RemoveLocation(ctx context.Context, sprintID, date, locationID string) (domain.TravelLog, error) {
	var resp api.TravelLogResponse
	path := dayPath(sprintID, date) + "/locations/" + url.PathEscape(locationID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("client.Client.RemoveLocation: %w", err)
	}
	return resp.TravelLog, nil
}

func (c *Client) SetPhoto(ctx context.Context, sprintID, date string, photo *string) (domain.TravelLog, error) {
	var resp api.TravelLogResponse
	if err := c.do(ctx, http.MethodPut, dayPath(sprintID, date)+"/photo", api.PhotoRequest{Photo: photo}, &resp); err != nil {
		return nil, fmt.Errorf("client.Client.SetPhoto: %w", err)
	}
	return resp.TravelLog, nil
}

// ---- transport -------------------------------------------------------------

// do sends one JSON request and decodes a 2xx body into out when out is not
// nil. Error responses are turned back into the domain sentinel errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ErrUnauthorized is returned when the server rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

// decodeError maps an error envelope onto the domain error taxonomy.
func decodeError(resp *http.Response) error {
	var env api.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&env)
	msg := env.Error.Message
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch env.Error.Code {
	case api.CodeRateLimited:
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &domain.RateLimitError{Minutes: (secs + 59) / 60}
	case api.CodeValidation:
		sentinel = domain.ErrValidation
	case api.CodeNotFound:
		sentinel = domain.ErrNotFound
	case api.CodeInvalidCredentials:
		sentinel = domain.ErrInvalidCredentials
	case api.CodeAccountDisabled:
		sentinel = domain.ErrAccountDisabled
	case api.CodeForbidden:
		sentinel = domain.ErrForbidden
	case api.CodeUnauthorized:
		sentinel = ErrUnauthorized
	case api.CodeUnavailable:
		sentinel = domain.ErrBackendUnavailable
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

func sprintPath(id string) string { return "/sprints/" + url.PathEscape(id) }

func dayPath(sprintID, date string) string {
	return sprintPath(sprintID) + "/days/" + url.PathEscape(date)
}

func todoPath(sprintID, date, todoID string) string {
	return dayPath(sprintID, date) + "/todos/" + url.PathEscape(todoID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
