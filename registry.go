package osr

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Registry tracks live sessions by ID.
//
// Sessions join the registry when they are created and leave it on Close.
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	order    []uuid.UUID

	// keepResources disables release on close, see SetCleanup.
	keepResources atomic.Bool
}

// NewRegistry creates an empty registry with cleanup enabled.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry sessions join unless WithRegistry
// says otherwise.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetCleanup controls what closing a session releases. With cleanup
// disabled, Close leaves the session registered and keeps its textures,
// and only closes the engine browser.
func (r *Registry) SetCleanup(enabled bool) {
	r.keepResources.Store(!enabled)
}

// Cleanup reports whether closing a session releases its resources.
func (r *Registry) Cleanup() bool {
	return !r.keepResources.Load()
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.id]; ok {
		return
	}
	r.sessions[s.id] = s
	r.order = append(r.order, s.id)
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.id]; !ok {
		return
	}
	delete(r.sessions, s.id)
	for i, id := range r.order {
		if id == s.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the session with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns the registered sessions in registration order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// Each calls fn for every registered session in registration order until
// fn returns false. fn may close sessions.
func (r *Registry) Each(fn func(s *Session) bool) {
	for _, s := range r.Sessions() {
		if !fn(s) {
			return
		}
	}
}

// CloseAll closes every registered session, newest first so that
// developer tools close before the pages they inspect.
func (r *Registry) CloseAll() error {
	sessions := r.Sessions()
	var errs []error
	for i := len(sessions) - 1; i >= 0; i-- {
		if err := sessions[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
