package domain

import (
	"strings"
	"time"
)

// Credential is the stored login record of one username.
// Username is always normalized (see NormalizeUsername).
type Credential struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
}

// Session is the identity produced by a successful login.
type Session struct {
	Username string `json:"username"`
	IsNew    bool   `json:"is_new"`
	IsAdmin  bool   `json:"is_admin"`
}

// NormalizeUsername trims and lowercases a username. The result is the
// identity used by every component: credential key, rate-limit identity and
// sprint owner.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UserSummary is the admin view of an account.
type UserSummary struct {
	Username    string    `json:"username"`
	IsAdmin     bool      `json:"is_admin"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
	SprintCount int       `json:"sprint_count"`
}
