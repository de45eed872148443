package middleware

import (
	"fmt"
	"net/http"

	"github.com/pkordes/jetjot/internal/api"
)

// NewMaxBodySizeHandler caps request bodies at limit bytes. A declared
// Content-Length over the limit is answered with 413 straight away; any other
// body is wrapped in http.MaxBytesReader, so the handler's decode fails once
// it reads past the limit and the handler reports 413 itself.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	tooLarge := fmt.Sprintf("request body exceeds %d bytes", limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Body == nil || r.Body == http.NoBody:
			case r.ContentLength > limit:
				writeError(w, http.StatusRequestEntityTooLarge, api.CodeTooLarge, tooLarge)
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
