// Package registry maps durable user ids to their current live connection.
// At most one connection is addressable per user: a later Register for the
// same id silently supersedes the earlier one.
package registry

import "sync"

// Session is the transport-side handle a connection exposes to the
// registry. Deliver must not block; it reports whether the payload was
// accepted (a full or closed session returns false).
type Session interface {
	Deliver(payload []byte) bool
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[int]Session
}

func New() *Registry {
	return &Registry{sessions: make(map[int]Session)}
}

// Register installs s as the sole addressable session for userID,
// overwriting any existing mapping (last write wins).
func (r *Registry) Register(userID int, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = s
}

// Lookup returns the live session for userID, or nil.
func (r *Registry) Lookup(userID int) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// LookupMany resolves userIDs to their live sessions, silently dropping
// ids with no connection. Offline recipients simply miss the event.
func (r *Registry) LookupMany(userIDs []int) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(userIDs))
	for _, id := range userIDs {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// UnregisterIfCurrent removes the mapping for userID only if it still
// points at s. A stale disconnect must not evict a newer session that
// re-registered under the same user.
func (r *Registry) UnregisterIfCurrent(userID int, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] == s {
		delete(r.sessions, userID)
	}
}
