package realtime

import "sync"

// Session is a live realtime connection that can receive pushed envelopes.
type Session interface {
	ID() string
	Send(e Envelope) error
	Close()
}

// PresenceEntry is one live user-to-session binding, exposed for diagnostics.
type PresenceEntry struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Registry maintains the live binding between user IDs and realtime sessions.
// It is constructed at service start and injected where needed. Presence is
// process-local: it does not survive restarts and is not shared across
// horizontally scaled instances, so a user registered on one instance is
// invisible to dispatches handled by another.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]Session
	bySession map[string]string // session ID -> user ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]Session),
		bySession: make(map[string]string),
	}
}

// Register binds userID to s. A previous session registered for the same user
// is silently replaced. A session re-registering under a new user ID drops its
// old binding first, so a session is bound to at most one user at a time.
func (r *Registry) Register(userID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevUser, ok := r.bySession[s.ID()]; ok && prevUser != userID {
		if cur, ok := r.byUser[prevUser]; ok && cur.ID() == s.ID() {
			delete(r.byUser, prevUser)
		}
	}
	if old, ok := r.byUser[userID]; ok && old.ID() != s.ID() {
		delete(r.bySession, old.ID())
	}

	r.byUser[userID] = s
	r.bySession[s.ID()] = userID
}

// Unregister removes the binding for s, if any. A session that never
// registered is a no-op.
func (r *Registry) Unregister(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bySession[s.ID()]
	if !ok {
		return
	}
	delete(r.bySession, s.ID())
	if cur, ok := r.byUser[userID]; ok && cur.ID() == s.ID() {
		delete(r.byUser, userID)
	}
}

// Lookup returns the current session for userID. The session may have gone
// stale; callers must treat a failed Send as eviction grounds.
func (r *Registry) Lookup(userID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Snapshot returns all current bindings, for diagnostics only.
func (r *Registry) Snapshot() []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]PresenceEntry, 0, len(r.byUser))
	for userID, s := range r.byUser {
		entries = append(entries, PresenceEntry{UserID: userID, SessionID: s.ID()})
	}
	return entries
}
