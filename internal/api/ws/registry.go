package ws

import (
	"sync"

	"github.com/samber/lo"
)

// Registry is the set of live board connections. It performs no I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Add inserts c and reports whether it was absent.
func (r *Registry) Add(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c.ID()]; ok {
		return false
	}
	r.conns[c.ID()] = c
	return true
}

// Remove deletes c and reports whether it was present. Removing an absent
// connection is a no-op.
func (r *Registry) Remove(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c.ID()]; !ok {
		return false
	}
	delete(r.conns, c.ID())
	return true
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ForEach calls visit for every connection registered at the time of the call.
// visit may add or remove connections.
func (r *Registry) ForEach(visit func(*Conn)) {
	for _, c := range r.snapshot() {
		visit(c)
	}
}

// Open returns the registered connections in the open state.
func (r *Registry) Open() []*Conn {
	return lo.Filter(r.snapshot(), func(c *Conn, _ int) bool {
		return c.IsOpen()
	})
}

func (r *Registry) snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.conns)
}
