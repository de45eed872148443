package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewSlogLogger writes one line per request to log: method, path, status,
// bytes written, duration and the chi request id, plus the username once the
// auth middleware further down the chain has accepted a token. 5xx responses
// log at error level.
//
// Mount it after chimiddleware.RequestID.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			who := &userHolder{}

			next.ServeHTTP(ww, r.WithContext(withUserHolder(r.Context(), who)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Int64("duration_ms", time.Since(began).Milliseconds()),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			}
			if who.username != "" {
				attrs = append(attrs, slog.String("username", who.username))
			}
			log.LogAttrs(r.Context(), levelFor(ww.Status()), "request", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// userHolder is filled in by the auth middleware, which runs after the logger
// has already put the request context together.
type userHolder struct {
	username string
}

type userHolderKey struct{}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey{}, h)
}

// recordUser stores the authenticated username for the request log line.
func recordUser(ctx context.Context, username string) {
	if h, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		h.username = username
	}
}
