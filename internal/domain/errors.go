package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty todo text, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrRateLimited is matched by every *RateLimitError.
// Handlers should map this to HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// ErrAccountDisabled is returned by the auth gate when an administrator has
// disabled the account. The correct password does not help.
var ErrAccountDisabled = errors.New("account disabled")

// ErrInvalidCredentials covers a wrong password for an existing username.
// The message is deliberately vague so it does not confirm which part failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrBackendUnavailable is returned when the credential store cannot be
// reached within the lookup timeout. It is never retried automatically.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrForbidden is returned when an authenticated caller lacks the admin flag.
var ErrForbidden = errors.New("forbidden")

// RateLimitError carries the whole minutes left until the window resets.
type RateLimitError struct {
	Minutes  int
	ResetsAt time.Time
}

func (e *RateLimitError) Error() string {
	unit := "minutes"
	if e.Minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("too many attempts, please wait %d %s before trying again", e.Minutes, unit)
}

// Is makes errors.Is(err, ErrRateLimited) true for any RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
