package ws

import "sync"

// Registry tracks which users currently hold live connections. It is the only
// process-wide mutable state in the realtime core; all mutation goes through
// Register and Deregister.
type Registry interface {
	Register(userID int, connID string)
	Deregister(userID int, connID string)
	IsOnline(userID int) bool
	ConnectionsFor(userID int) []string
	OnlineUserIDs() []int
}

// PresenceRegistry maps a user id to the set of its open connection ids. A
// user appears as a key iff the set is non-empty, so "online" is exactly
// "present as a key". The registry performs no I/O.
type PresenceRegistry struct {
	mu    sync.RWMutex
	users map[int]map[string]struct{}
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{users: make(map[int]map[string]struct{})}
}

// Register adds the connection to the user's set, creating the entry if
// absent. Registering the same pair twice is a no-op.
func (r *PresenceRegistry) Register(userID int, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.users[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Deregister removes the connection from the user's set and deletes the entry
// when the set empties. Deregistering an absent pair is a no-op; disconnect
// notifications may race or repeat.
func (r *PresenceRegistry) Deregister(userID int, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.users[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.users, userID)
	}
}

// IsOnline reports whether the user has at least one live connection.
func (r *PresenceRegistry) IsOnline(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// ConnectionsFor returns the user's live connection ids; empty when offline.
func (r *PresenceRegistry) ConnectionsFor(userID int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]string, 0, len(r.users[userID]))
	for id := range r.users[userID] {
		conns = append(conns, id)
	}
	return conns
}

// OnlineUserIDs returns a snapshot of every online user id.
func (r *PresenceRegistry) OnlineUserIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}
