package supervisor

import (
	"sort"
	"sync"
)

// Registry holds live sessions keyed by a stable job id, so leaving and
// re-entering a view re-attaches to running processes instead of
// respawning them. Handles persist for the life of the host application;
// there is no teardown for removed ids.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Supervisor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Supervisor)}
}

// Get returns the session for id, if one exists.
func (r *Registry) Get(id string) (*Supervisor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it with create on
// first use. The second return reports whether a new session was created;
// callers use it to append a re-attach notice on reuse.
func (r *Registry) GetOrCreate(id string, create func() *Supervisor) (*Supervisor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, false
	}
	s := create()
	r.sessions[id] = s
	return s, true
}

// IDs returns the registered job ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
