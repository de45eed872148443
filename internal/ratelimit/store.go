package ratelimit

import "sync"

// Store persists windows by identity.
type Store interface {
	// Get returns the window of identity, if any.
	Get(identity string) (Window, bool)

	// Update runs fn atomically with the current window (ok is false when none
	// exists) and stores the returned window when keep is true.
	Update(identity string, fn func(w Window, ok bool) (next Window, keep bool))

	// Delete removes the window of identity.
	Delete(identity string)
}

// MemoryStore is a mutex-guarded map. State is lost on restart, which only
// ever relaxes the limits.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

func (s *MemoryStore) Get(identity string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[identity]
	return w, ok
}

func (s *MemoryStore) Update(identity string, fn func(Window, bool) (Window, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[identity]
	next, keep := fn(w, ok)
	if keep {
		s.windows[identity] = next
	}
}

func (s *MemoryStore) Delete(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, identity)
}
