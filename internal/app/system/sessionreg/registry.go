// internal/app/system/sessionreg/registry.go

// Package sessionreg tracks admin sessions in memory for presence and
// audit correlation. The registry is process-local by design; swapping in a
// shared store behind the same operations is the scaling path.
package sessionreg

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is how long a session may sit idle before a sweep marks
// it inactive.
const DefaultTimeout = 24 * time.Hour

// Session is one tracked connection for a principal. A principal may hold
// several concurrent entries; presence queries consider only the
// most-recently-active one.
type Session struct {
	ID           string
	PrincipalID  string
	ConnectedAt  time.Time
	LastActiveAt time.Time
	Active       bool
	EndedAt      *time.Time
}

// Registry is safe for concurrent use. Lookups are linear scans, which is
// deliberate: the expected population is tens to low hundreds of admins.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
}

// New creates a Registry with the given idle timeout; non-positive values
// use DefaultTimeout.
func New(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Create registers a new session for the principal and returns it.
// Existing sessions are left untouched.
func (r *Registry) Create(principalID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		PrincipalID:  principalID,
		ConnectedAt:  now,
		LastActiveAt: now,
		Active:       true,
	}
	r.sessions[s.ID] = s
	return *s
}

// Touch updates the session's last-activity time. Returns false for
// unknown or inactive sessions.
func (r *Registry) Touch(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || !s.Active {
		return false
	}
	s.LastActiveAt = r.now().UTC()
	return true
}

// Invalidate marks the session inactive and stamps its end time. Returns
// false for unknown or already-inactive sessions.
func (r *Registry) Invalidate(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || !s.Active {
		return false
	}
	now := r.now().UTC()
	s.Active = false
	s.EndedAt = &now
	return true
}

// ActiveSession returns the principal's most-recently-active session, if
// any is active.
func (r *Registry) ActiveSession(principalID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *Session
	for _, s := range r.sessions {
		if !s.Active || s.PrincipalID != principalID {
			continue
		}
		if best == nil || s.LastActiveAt.After(best.LastActiveAt) {
			best = s
		}
	}
	if best == nil {
		return Session{}, false
	}
	return *best, true
}

// ActiveCount returns the number of active sessions across all principals.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.sessions {
		if s.Active {
			n++
		}
	}
	return n
}

// Sweep marks inactive every session idle past the timeout and prunes
// entries that ended before the cutoff, returning how many were closed.
// A background worker calls this on a timer; tests call it directly.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	cutoff := now.Add(-r.timeout)
	closed := 0
	for id, s := range r.sessions {
		if s.Active && s.LastActiveAt.Before(cutoff) {
			ended := s.LastActiveAt
			s.Active = false
			s.EndedAt = &ended
			closed++
			continue
		}
		if !s.Active && s.EndedAt != nil && s.EndedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
	return closed
}
