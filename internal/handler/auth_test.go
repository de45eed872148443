package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/handler"
	"github.com/pkordes/jetjot/internal/ratelimit"
)

func loginHandler(login func(ctx context.Context, u, p string) (domain.Session, error)) http.Handler {
	return newHTTPHandler(handler.Services{Auth: &mockAuthServicer{login: login}})
}

func TestLogin_NewAccount201WithToken(t *testing.T) {
	h := loginHandler(func(_ context.Context, u, p string) (domain.Session, error) {
		assert.Equal(t, "Alice", u)
		assert.Equal(t, "pw", p)
		return domain.Session{Username: "alice", IsNew: true}, nil
	})

	rec := do(t, h, http.MethodPost, "/auth/login", jsonBody(t, map[string]string{"username": "Alice", "password": "pw"}), "")

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.LoginResponse](t, rec)
	assert.Equal(t, "alice", resp.Username)
	assert.True(t, resp.IsNew)

	claims, err := testTokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestLogin_ExistingAccount200(t *testing.T) {
	h := loginHandler(func(context.Context, string, string) (domain.Session, error) {
		return domain.Session{Username: "root", IsAdmin: true}, nil
	})

	rec := do(t, h, http.MethodPost, "/auth/login", jsonBody(t, map[string]string{"username": "root", "password": "pw"}), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.LoginResponse](t, rec).IsAdmin)
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("svc: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized, api.CodeInvalidCredentials},
		{"disabled", fmt.Errorf("svc: %w", domain.ErrAccountDisabled), http.StatusForbidden, api.CodeAccountDisabled},
		{"unavailable", fmt.Errorf("svc: %w", domain.ErrBackendUnavailable), http.StatusServiceUnavailable, api.CodeUnavailable},
		{"validation", fmt.Errorf("svc: %w: username and password are required", domain.ErrValidation), http.StatusUnprocessableEntity, api.CodeValidation},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, api.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := loginHandler(func(context.Context, string, string) (domain.Session, error) {
				return domain.Session{}, tc.err
			})

			rec := do(t, h, http.MethodPost, "/auth/login", jsonBody(t, map[string]string{"username": "a", "password": "b"}), "")

			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode[api.ErrorResponse](t, rec).Error.Code)
		})
	}
}

func TestLogin_ValidationMessageIsUnwrapped(t *testing.T) {
	h := loginHandler(func(context.Context, string, string) (domain.Session, error) {
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w: username and password are required", domain.ErrValidation)
	})

	rec := do(t, h, http.MethodPost, "/auth/login", jsonBody(t, map[string]string{}), "")

	assert.Equal(t, "username and password are required", decode[api.ErrorResponse](t, rec).Error.Message)
}

func TestLogin_RateLimited429WithRetryAfter(t *testing.T) {
	h := loginHandler(func(context.Context, string, string) (domain.Session, error) {
		return domain.Session{}, fmt.Errorf("svc: %w", &domain.RateLimitError{Minutes: 15})
	})

	rec := do(t, h, http.MethodPost, "/auth/login", jsonBody(t, map[string]string{"username": "a", "password": "b"}), "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	body := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeRateLimited, body.Error.Code)
	assert.Contains(t, body.Error.Message, "15 minutes")
}

func TestLogin_MalformedBody422(t *testing.T) {
	h := loginHandler(nil)

	rec := do(t, h, http.MethodPost, "/auth/login", strings.NewReader("{not json"), "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetRateLimit(t *testing.T) {
	resets := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	h := newHTTPHandler(handler.Services{Auth: &mockAuthServicer{
		status: func(u string) ratelimit.Status {
			if u == "alice" {
				return ratelimit.Status{Attempts: 2, Remaining: 3, ResetsAt: resets}
			}
			return ratelimit.Status{Remaining: 5}
		},
	}})

	rec := do(t, h, http.MethodGet, "/auth/rate-limit?username=alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[api.RateLimitResponse](t, rec)
	assert.Equal(t, 2, st.Attempts)
	assert.Equal(t, 3, st.Remaining)
	require.NotNil(t, st.ResetsAt)
	assert.True(t, resets.Equal(*st.ResetsAt))

	rec = do(t, h, http.MethodGet, "/auth/rate-limit?username=bob", nil, "")
	assert.Nil(t, decode[api.RateLimitResponse](t, rec).ResetsAt)

	rec = do(t, h, http.MethodGet, "/auth/rate-limit", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
