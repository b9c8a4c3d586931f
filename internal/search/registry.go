package search

import (
	"sync"
	"time"

	"github.com/mrlokans/bookfinder/internal/metrics"
)

// Factory builds the session for a newly seen id.
type Factory func(id string) *Session

// Registry holds one Session per browser or shell session, in memory only.
type Registry struct {
	newSession Factory
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	session  *Session
	lastSeen time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(newSession Factory) *Registry {
	return &Registry{
		newSession: newSession,
		now:        time.Now,
		sessions:   make(map[string]*registryEntry),
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
		return e.session
	}

	s := r.newSession(id)
	r.sessions[id] = &registryEntry{session: s, lastSeen: r.now()}
	metrics.ActiveSearchSessions.Set(float64(len(r.sessions)))
	return s
}

// Lookup returns the session for id without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// Remove drops the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	metrics.ActiveSearchSessions.Set(float64(len(r.sessions)))
}

// Prune drops sessions not used for longer than idle and returns how many
// were removed.
func (r *Registry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	metrics.ActiveSearchSessions.Set(float64(len(r.sessions)))
	return removed
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
