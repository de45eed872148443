package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
)

// ListUsers handles GET /admin/users.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	params := domain.NewPaginationParams(page, limit)

	users, total, err := s.admin.ListUsers(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, api.UserList{
		Data: users,
		Pagination: api.Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// SetUserDisabled handles PUT /admin/users/{username}/disabled.
func (s *Server) SetUserDisabled(w http.ResponseWriter, r *http.Request) {
	var body api.FlagRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	if err := s.admin.SetDisabled(r.Context(), owner(r), chi.URLParam(r, "username"), body.Value); err != nil {
		s.writeServiceError(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetUserAdmin handles PUT /admin/users/{username}/admin.
func (s *Server) SetUserAdmin(w http.ResponseWriter, r *http.Request) {
	var body api.FlagRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	if err := s.admin.SetAdmin(r.Context(), owner(r), chi.URLParam(r, "username"), body.Value); err != nil {
		s.writeServiceError(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /admin/users/{username}. Every sprint of the
// user is deleted first, then the account.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	n, err := s.admin.DeleteUser(r.Context(), owner(r), chi.URLParam(r, "username"))
	if err != nil {
		s.writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, api.DeleteUserResponse{SprintsDeleted: n})
}
