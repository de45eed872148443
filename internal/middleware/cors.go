// Package middleware holds the net/http middleware of the JetJot API: CORS,
// request body limits, bearer-token authentication and request logging.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, a browser may cache a preflight answer.
const corsMaxAge = 600

// NewCORSHandler allows browser clients served from allowedOrigins (full
// origins, no trailing slash) to call the API with a bearer token.
// Retry-After and Content-Disposition are exposed for the login lockout
// message and the CSV export file name.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "Content-Disposition"},
		MaxAge:         corsMaxAge,
	}).Handler
}
