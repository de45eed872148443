package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/jetjot/internal/api"
)

// ListSprints handles GET /sprints.
// Returns summaries of the caller's sprints, newest first.
func (s *Server) ListSprints(w http.ResponseWriter, r *http.Request) {
	sprints, err := s.sprints.List(r.Context(), owner(r))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.SprintList{Data: sprints})
}

// LoadOrCreateSprint handles POST /sprints.
// Answers 201 when the sprint was created and 200 when it already existed.
func (s *Server) LoadOrCreateSprint(w http.ResponseWriter, r *http.Request) {
	var body api.CreateSprintRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	name := ""
	if body.Name != nil {
		name = *body.Name
	}

	sp, created, err := s.sprints.LoadOrCreate(r.Context(), owner(r), body.StartDate.Time, body.EndDate.Time, name)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, api.SprintFromDomain(sp))
}

// GetSprint handles GET /sprints/{sprintID}.
func (s *Server) GetSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := s.sprints.Get(r.Context(), owner(r), chi.URLParam(r, "sprintID"))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.SprintFromDomain(sp))
}

// GetSharedSprint handles GET /shared/{owner}/{sprintID}: read-only access to
// another user's sprint by its share link.
func (s *Server) GetSharedSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := s.sprints.GetShared(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "sprintID"))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.SprintFromDomain(sp))
}

// RenameSprint handles PATCH /sprints/{sprintID}.
func (s *Server) RenameSprint(w http.ResponseWriter, r *http.Request) {
	var body api.RenameSprintRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	sp, err := s.sprints.Rename(r.Context(), owner(r), chi.URLParam(r, "sprintID"), body.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.SprintFromDomain(sp))
}

// DeleteSprint handles DELETE /sprints/{sprintID}.
func (s *Server) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	if err := s.sprints.Delete(r.Context(), owner(r), chi.URLParam(r, "sprintID")); err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
