package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/jetjot/internal/api"
)

// AddRecurring handles POST /sprints/{sprintID}/recurring.
// One todo is appended to every day of the sprint in a single write.
func (s *Server) AddRecurring(w http.ResponseWriter, r *http.Request) {
	var body api.RecurringRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	batch, err := s.recurring.AddRecurring(r.Context(), owner(r), chi.URLParam(r, "sprintID"), body.Draft())
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// RemoveRecurringGroup handles DELETE /sprints/{sprintID}/recurring/{groupID}.
// Removing a group that has no members left succeeds with removed = 0.
func (s *Server) RemoveRecurringGroup(w http.ResponseWriter, r *http.Request) {
	var groupID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "groupID", chi.URLParam(r, "groupID"), &groupID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "groupID must be a UUID")
		return
	}

	n, err := s.recurring.RemoveGroup(r.Context(), owner(r), chi.URLParam(r, "sprintID"), groupID.String())
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.RemoveGroupResponse{Removed: n})
}
