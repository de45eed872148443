package handler

import (
	"net/http"

	"github.com/pkordes/jetjot/internal/api"
)

// Login handles POST /auth/login. The first login for a username creates the
// account; the response says so in is_new.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	sess, err := s.auth.LoginOrCreate(r.Context(), body.Username, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "account")
		return
	}

	tok, err := s.tokens.Issue(sess)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	status := http.StatusOK
	if sess.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, api.LoginResponse{
		Token:    tok,
		Username: sess.Username,
		IsNew:    sess.IsNew,
		IsAdmin:  sess.IsAdmin,
	})
}

// GetRateLimit handles GET /auth/rate-limit?username=.
// It reports the per-username window without counting an attempt.
func (s *Server) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	var username *string
	if err := queryParam(r, "username", &username); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if username == nil || *username == "" {
		requestError(w, "username is required")
		return
	}

	st := s.auth.RateLimitStatus(*username)
	resp := api.RateLimitResponse{Attempts: st.Attempts, Remaining: st.Remaining}
	if !st.ResetsAt.IsZero() {
		resp.ResetsAt = &st.ResetsAt
	}
	writeJSON(w, http.StatusOK, resp)
}
