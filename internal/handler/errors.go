package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/middleware"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: api.ErrorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service layer
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, api.CodeValidation, message)
}

// writeServiceError maps a service error onto its HTTP status. what names the
// resource for 404 messages, e.g. "sprint". Unknown errors are logged and
// answered with 500 without leaking their text.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var rl *domain.RateLimitError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(rl.Minutes*60))
		writeError(w, http.StatusTooManyRequests, api.CodeRateLimited, rl.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, api.CodeTooLarge, "request body too large")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, api.CodeValidation, unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, api.CodeNotFound, what+" not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid username or password")
	case errors.Is(err, domain.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, api.CodeAccountDisabled, "this account has been disabled")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, api.CodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, api.CodeUnavailable, "service temporarily unavailable, please try again")
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, api.CodeInternal, "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.SprintService.AddTodo: validation error: text is required" → "text is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
		return msg[i+len(marker):]
	}
	return msg
}

// decodeBody reads a JSON body into dst. It answers the request itself and
// returns false when the body is missing, malformed or too large.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeServiceError(w, r, err, "")
			return false
		}
		requestError(w, "request body must be valid JSON")
		return false
	}
	return true
}

// owner returns the username of the authenticated caller.
func owner(r *http.Request) string {
	sess, _ := middleware.SessionFrom(r.Context())
	return sess.Username
}

// pathDate binds the {date} path parameter and returns it as a day key.
func pathDate(r *http.Request) (string, error) {
	var d openapi_types.Date
	err := runtime.BindStyledParameterWithOptions("simple", "date", chi.URLParam(r, "date"), &d,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return domain.DateKey(d.Time), nil
}

// queryParam binds an optional query parameter into dst (a pointer to a
// pointer), leaving it nil when absent.
func queryParam(r *http.Request, name string, dst any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		return fmt.Errorf("%w: invalid %s parameter", domain.ErrValidation, name)
	}
	return nil
}
