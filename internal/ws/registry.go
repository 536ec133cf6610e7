package ws

import "sync"

// Conn is a live connection capable of receiving named events.
// *Client satisfies it; tests substitute fakes.
type Conn interface {
	Emit(event string, data interface{}) error
}

// Registry is the process-wide mapping of online users to their single live
// connection. A reconnect from a new connection overwrites the previous
// mapping (last writer wins, no multi-device fan-out); removal is keyed to
// the departing connection so a stale disconnect cannot evict a fresh one.
// The registry is not persisted: after a restart everyone is offline until
// they reconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Add records userID as online through conn, replacing any previous
// connection for the same user.
func (r *Registry) Add(userID string, conn Conn) {
	r.mu.Lock()
	r.conns[userID] = conn
	r.mu.Unlock()
}

// Remove drops the mapping for userID, but only if it still points at conn.
// A disconnect of a superseded connection is a no-op.
func (r *Registry) Remove(userID string, conn Conn) {
	r.mu.Lock()
	if current, ok := r.conns[userID]; ok && current == conn {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
}

// Get returns the live connection for userID, if any.
func (r *Registry) Get(userID string) (Conn, bool) {
	r.mu.RLock()
	conn, ok := r.conns[userID]
	r.mu.RUnlock()
	return conn, ok
}

// Online reports whether userID currently has a live connection.
func (r *Registry) Online(userID string) bool {
	_, ok := r.Get(userID)
	return ok
}

// Count returns the number of online users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
