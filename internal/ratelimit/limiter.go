// Package ratelimit implements the fixed-window abuse guard in front of the
// credential check.
//
// Windows are fixed, not sliding: a burst straddling a window boundary can be
// admitted up to twice the limit. That is accepted behaviour.
package ratelimit

import (
	"math"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
)

// Window is the counter of one identity.
type Window struct {
	Attempts    int
	WindowStart time.Time
}

// Status is the read-only projection of a window for display.
// ResetsAt is zero when no window is open.
type Status struct {
	Attempts  int       `json:"attempts"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at,omitempty"`
}

// Limiter admits at most Max attempts per identity within each Window.
type Limiter struct {
	max    int
	window time.Duration
	store  Store
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now; tests use it to move across windows.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

// New returns a limiter allowing max attempts per window.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{max: max, window: window, store: NewMemoryStore(), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Check counts one attempt for identity. It fails with a *domain.RateLimitError
// once the window already holds max attempts; a rejected attempt is not counted.
func (l *Limiter) Check(identity string) error {
	var rejected error
	l.store.Update(identity, func(w Window, ok bool) (Window, bool) {
		now := l.now()
		if !ok || now.Sub(w.WindowStart) >= l.window {
			w = Window{WindowStart: now}
		}
		if w.Attempts >= l.max {
			resetsAt := w.WindowStart.Add(l.window)
			rejected = &domain.RateLimitError{
				Minutes:  int(math.Ceil(resetsAt.Sub(now).Minutes())),
				ResetsAt: resetsAt,
			}
			return w, true
		}
		w.Attempts++
		return w, true
	})
	return rejected
}

// Reset forgets the window of identity.
func (l *Limiter) Reset(identity string) {
	l.store.Delete(identity)
}

// Status reports the window of identity without changing it.
func (l *Limiter) Status(identity string) Status {
	w, ok := l.store.Get(identity)
	if !ok || l.now().Sub(w.WindowStart) >= l.window {
		return Status{Remaining: l.max}
	}
	return Status{
		Attempts:  w.Attempts,
		Remaining: max(0, l.max-w.Attempts),
		ResetsAt:  w.WindowStart.Add(l.window),
	}
}
