package ratelimit

// GlobalIdentity is the single identity every login attempt counts against.
const GlobalIdentity = "*"

// Guard consults the global limiter and then the per-username limiter.
// The global check runs first and counts even when the per-user check would
// pass, so a noisy client can lock out unrelated usernames.
type Guard struct {
	global  *Limiter
	perUser *Limiter
}

// NewGuard composes the two limiters.
func NewGuard(global, perUser *Limiter) *Guard {
	return &Guard{global: global, perUser: perUser}
}

// Check counts one login attempt for username.
func (g *Guard) Check(username string) error {
	if err := g.global.Check(GlobalIdentity); err != nil {
		return err
	}
	return g.perUser.Check(username)
}

// Reset clears the per-username window after a successful login.
// The global window is never reset.
func (g *Guard) Reset(username string) {
	g.perUser.Reset(username)
}

// Status is the per-username projection shown next to the login form.
func (g *Guard) Status(username string) Status {
	return g.perUser.Status(username)
}
