// Package handler implements the HTTP handlers for the JetJot API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, sprint.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/middleware"
	"github.com/pkordes/jetjot/internal/ratelimit"
	"github.com/pkordes/jetjot/internal/service"
	"github.com/pkordes/jetjot/internal/token"
)

// AuthServicer is the login surface the auth handlers depend on.
// Defining the interfaces here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type AuthServicer interface {
	LoginOrCreate(ctx context.Context, username, password string) (domain.Session, error)
	RateLimitStatus(username string) ratelimit.Status
}

// Tokens issues and validates session tokens.
type Tokens interface {
	Issue(s domain.Session) (string, error)
	Parse(raw string) (*token.Claims, error)
}

// SprintServicer covers the sprint document and its per-day todo mutations.
type SprintServicer interface {
	LoadOrCreate(ctx context.Context, owner string, start, end time.Time, name string) (domain.Sprint, bool, error)
	Get(ctx context.Context, owner, id string) (domain.Sprint, error)
	GetShared(ctx context.Context, owner, id string) (domain.Sprint, error)
	List(ctx context.Context, owner string) ([]domain.SprintSummary, error)
	Rename(ctx context.Context, owner, id, name string) (domain.Sprint, error)
	Delete(ctx context.Context, owner, id string) error

	AddTodo(ctx context.Context, owner, id, date string, d domain.TodoDraft) (domain.Todo, error)
	ToggleTodo(ctx context.Context, owner, id, date, todoID string) (domain.Todo, error)
	SetTodoCompleted(ctx context.Context, owner, id, date, todoID string, completed bool) (domain.Todo, error)
	EditTodoText(ctx context.Context, owner, id, date, todoID, text string) (domain.Todo, error)
	DeleteTodo(ctx context.Context, owner, id, date, todoID string) error
	ReorderTodos(ctx context.Context, owner, id, date string, ids []string) ([]domain.Todo, error)

	AddSubtask(ctx context.Context, owner, id, date, todoID, subtaskID, text string) (domain.Todo, error)
	ToggleSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error)
	DeleteSubtask(ctx context.Context, owner, id, date, todoID, subtaskID string) (domain.Todo, error)
	ReorderSubtasks(ctx context.Context, owner, id, date, todoID string, ids []string) (domain.Todo, error)
}

// RecurringServicer adds and removes recurring groups.
type RecurringServicer interface {
	AddRecurring(ctx context.Context, owner, id string, d domain.TodoDraft) (domain.RecurringBatch, error)
	RemoveGroup(ctx context.Context, owner, id, groupID string) (int, error)
}

// TravelLogServicer manages pins and cover photos.
type TravelLogServicer interface {
	AddLocation(ctx context.Context, owner, id, date string, d domain.LocationDraft) (domain.TravelLog, error)
	RemoveLocation(ctx context.Context, owner, id, date, locationID string) (domain.TravelLog, error)
	SetPhoto(ctx context.Context, owner, id, date string, photo *string) (domain.TravelLog, error)
	Route(ctx context.Context, owner, id string) (domain.Route, error)
}

// WeatherServicer looks up the weather of a sprint.
type WeatherServicer interface {
	ForSprint(ctx context.Context, owner, id string, at *service.Coordinates) ([]domain.DayWeather, error)
}

// ExportServicer defines the business operations the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, owner, id string) ([]domain.ExportRow, error)
}

// AdminServicer covers account administration.
type AdminServicer interface {
	ListUsers(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error)
	SetDisabled(ctx context.Context, actor, username string, disabled bool) error
	SetAdmin(ctx context.Context, actor, username string, admin bool) error
	DeleteUser(ctx context.Context, actor, username string) (int64, error)
}

// PhotoEncoder turns an uploaded image into a cover photo data URL.
type PhotoEncoder func(r io.Reader) (string, error)

// Services bundles the dependencies of a Server. Members whose routes are
// never called may be left nil.
type Services struct {
	Auth      AuthServicer
	Tokens    Tokens
	Sprints   SprintServicer
	Recurring RecurringServicer
	Travel    TravelLogServicer
	Weather   WeatherServicer
	Export    ExportServicer
	Admin     AdminServicer
	Photos    PhotoEncoder
	OpenAPI   []byte
	Logger    *slog.Logger
}

// Server serves every API endpoint.
type Server struct {
	auth      AuthServicer
	tokens    Tokens
	sprints   SprintServicer
	recurring RecurringServicer
	travel    TravelLogServicer
	weather   WeatherServicer
	export    ExportServicer
	admin     AdminServicer
	photos    PhotoEncoder
	openAPI   []byte
	logger    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(deps Services) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:      deps.Auth,
		tokens:    deps.Tokens,
		sprints:   deps.Sprints,
		recurring: deps.Recurring,
		travel:    deps.Travel,
		weather:   deps.Weather,
		export:    deps.Export,
		admin:     deps.Admin,
		photos:    deps.Photos,
		openAPI:   deps.OpenAPI,
		logger:    logger,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(Services{})
}

// Routes returns the chi router for the whole API. Cross-cutting middleware
// (request id, logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/auth/login", s.Login)
	r.Get("/auth/rate-limit", s.GetRateLimit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthHandler(s.tokens))

		r.Get("/sprints", s.ListSprints)
		r.Post("/sprints", s.LoadOrCreateSprint)
		r.Get("/shared/{owner}/{sprintID}", s.GetSharedSprint)

		r.Route("/sprints/{sprintID}", func(r chi.Router) {
			r.Get("/", s.GetSprint)
			r.Patch("/", s.RenameSprint)
			r.Delete("/", s.DeleteSprint)

			r.Post("/recurring", s.AddRecurring)
			r.Delete("/recurring/{groupID}", s.RemoveRecurringGroup)

			r.Get("/route", s.GetRoute)
			r.Get("/weather", s.GetWeather)
			r.Get("/export", s.GetExport)

			r.Route("/days/{date}", func(r chi.Router) {
				r.Post("/todos", s.AddTodo)
				r.Put("/order", s.ReorderTodos)
				r.Route("/todos/{todoID}", func(r chi.Router) {
					r.Patch("/", s.EditTodo)
					r.Delete("/", s.DeleteTodo)
					r.Post("/toggle", s.ToggleTodo)
					r.Post("/subtasks", s.AddSubtask)
					r.Put("/subtasks/order", s.ReorderSubtasks)
					r.Post("/subtasks/{subtaskID}/toggle", s.ToggleSubtask)
					r.Delete("/subtasks/{subtaskID}", s.DeleteSubtask)
				})

				r.Post("/locations", s.AddLocation)
				r.Delete("/locations/{locationID}", s.RemoveLocation)
				r.Put("/photo", s.SetPhoto)
				r.Post("/photo/upload", s.UploadPhoto)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/users", s.ListUsers)
			r.Put("/users/{username}/disabled", s.SetUserDisabled)
			r.Put("/users/{username}/admin", s.SetUserAdmin)
			r.Delete("/users/{username}", s.DeleteUser)
		})
	})

	return r
}
