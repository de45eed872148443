package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/middleware"
	"github.com/pkordes/jetjot/internal/token"
)

// fakeParser accepts the tokens it knows and rejects everything else.
type fakeParser map[string]*token.Claims

func (f fakeParser) Parse(raw string) (*token.Claims, error) {
	if c, ok := f[raw]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

var parser = fakeParser{
	"user-token":  {Username: "alice"},
	"admin-token": {Username: "root", Admin: true},
}

// sessionEcho writes the username found in the request context.
var sessionEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(s)
})

func TestAuthHandler_ValidTokenSetsSession(t *testing.T) {
	h := middleware.NewAuthHandler(parser)(sessionEcho)

	req := httptest.NewRequest(http.MethodGet, "/sprints", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var s domain.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, "alice", s.Username)
	assert.False(t, s.IsAdmin)
}

func TestAuthHandler_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic user-token",
		"unknown token":  "Bearer forged",
		"empty bearer":   "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := middleware.NewAuthHandler(parser)(sessionEcho)

			req := httptest.NewRequest(http.MethodGet, "/sprints", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body api.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, api.CodeUnauthorized, body.Error.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := middleware.NewAuthHandler(parser)(middleware.RequireAdmin(okHandler))

	for tok, want := range map[string]int{
		"user-token":  http.StatusForbidden,
		"admin-token": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code, tok)
	}
}

func TestRequireAdmin_WithoutAuthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.RequireAdmin(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
