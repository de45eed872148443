package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/token"
)

// TokenParser validates a bearer token. *token.Issuer implements it.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session placed in ctx by NewAuthHandler.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

// NewAuthHandler returns a middleware that requires an
// "Authorization: Bearer <token>" header and stores the session in the
// request context. Missing or invalid tokens get 401.
func NewAuthHandler(p TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing bearer token")
				return
			}
			claims, err := p.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid or expired token")
				return
			}
			s := domain.Session{Username: claims.Username, IsAdmin: claims.Admin}
			recordUser(r.Context(), s.Username)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin rejects sessions without the admin flag with 403.
// Wire it after NewAuthHandler.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing bearer token")
			return
		}
		if !s.IsAdmin {
			writeError(w, http.StatusForbidden, api.CodeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: api.ErrorDetail{Code: code, Message: message}})
}
