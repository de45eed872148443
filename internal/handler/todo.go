package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
)

// dayTarget is the sprint and day addressed by a /sprints/{sprintID}/days/{date}
// route, plus the caller.
type dayTarget struct {
	owner, sprintID, date string
}

// day resolves the day route parameters. It answers the request itself and
// returns false when the date is malformed.
func (s *Server) day(w http.ResponseWriter, r *http.Request) (dayTarget, bool) {
	date, err := pathDate(r)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return dayTarget{}, false
	}
	return dayTarget{owner: owner(r), sprintID: chi.URLParam(r, "sprintID"), date: date}, true
}

// AddTodo handles POST /sprints/{sprintID}/days/{date}/todos.
func (s *Server) AddTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.TodoRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	todo, err := s.sprints.AddTodo(r.Context(), t.owner, t.sprintID, t.date, body.Draft())
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// ReorderTodos handles PUT /sprints/{sprintID}/days/{date}/order.
func (s *Server) ReorderTodos(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.ReorderRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	todos, err := s.sprints.ReorderTodos(r.Context(), t.owner, t.sprintID, t.date, body.IDs)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.Day{Date: t.date, Todos: todos})
}

// ToggleTodo handles POST .../todos/{todoID}/toggle. A body carrying
// "completed" sets the flag to that value; an empty body flips it.
func (s *Server) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.ToggleRequest
	if r.ContentLength != 0 && !s.decodeBody(w, r, &body) {
		return
	}
	todoID := chi.URLParam(r, "todoID")
	var (
		todo domain.Todo
		err  error
	)
	if body.Completed != nil {
		todo, err = s.sprints.SetTodoCompleted(r.Context(), t.owner, t.sprintID, t.date, todoID, *body.Completed)
	} else {
		todo, err = s.sprints.ToggleTodo(r.Context(), t.owner, t.sprintID, t.date, todoID)
	}
	if err != nil {
		s.writeServiceError(w, r, err, "todo")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// EditTodo handles PATCH .../todos/{todoID}.
func (s *Server) EditTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.EditTodoRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	todo, err := s.sprints.EditTodoText(r.Context(), t.owner, t.sprintID, t.date, chi.URLParam(r, "todoID"), body.Text)
	if err != nil {
		s.writeServiceError(w, r, err, "todo")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE .../todos/{todoID}.
func (s *Server) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	if err := s.sprints.DeleteTodo(r.Context(), t.owner, t.sprintID, t.date, chi.URLParam(r, "todoID")); err != nil {
		s.writeServiceError(w, r, err, "todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- subtasks --------------------------------------------------------------

// AddSubtask handles POST .../todos/{todoID}/subtasks and returns the parent todo.
func (s *Server) AddSubtask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.SubtaskRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	subID := ""
	if body.ID != nil {
		subID = *body.ID
	}
	todo, err := s.sprints.AddSubtask(r.Context(), t.owner, t.sprintID, t.date, chi.URLParam(r, "todoID"), subID, body.Text)
	if err != nil {
		s.writeServiceError(w, r, err, "todo")
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// ReorderSubtasks handles PUT .../todos/{todoID}/subtasks/order.
func (s *Server) ReorderSubtasks(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.ReorderRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	todo, err := s.sprints.ReorderSubtasks(r.Context(), t.owner, t.sprintID, t.date, chi.URLParam(r, "todoID"), body.IDs)
	if err != nil {
		s.writeServiceError(w, r, err, "todo")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// ToggleSubtask handles POST .../subtasks/{subtaskID}/toggle.
func (s *Server) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	todo, err := s.sprints.ToggleSubtask(r.Context(), t.owner, t.sprintID, t.date,
		chi.URLParam(r, "todoID"), chi.URLParam(r, "subtaskID"))
	if err != nil {
		s.writeServiceError(w, r, err, "subtask")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// DeleteSubtask handles DELETE .../subtasks/{subtaskID}.
func (s *Server) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	todo, err := s.sprints.DeleteSubtask(r.Context(), t.owner, t.sprintID, t.date,
		chi.URLParam(r, "todoID"), chi.URLParam(r, "subtaskID"))
	if err != nil {
		s.writeServiceError(w, r, err, "subtask")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}
