// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Defaults for administrative write operations.
const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Error is returned when a principal exhausts its window. It carries the
// reset time so handlers can emit a Retry-After.
type Error struct {
	ResetAt time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.Format(time.RFC3339))
}

// Limiter counts actions per (principal, action) in fixed windows.
// It is safe for concurrent use.
//
// Fixed windows mean a burst straddling a boundary can briefly exceed the
// cap. Accepted limitation.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max actions per window
	duration time.Duration // window length
	now      func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// New creates a rate limiter. Non-positive arguments use the defaults.
// The limiter grows one entry per live (principal, action) pair; call
// StartCleanup to prune expired entries in long-running processes.
func New(limit int, duration time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if duration <= 0 {
		duration = DefaultWindow
	}
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Check counts one attempt for the principal's action and reports whether
// it is allowed, how many attempts remain, and when the window resets.
// Expired windows are lazily replaced.
func (l *Limiter) Check(principalID, action string) Decision {
	key := principalID + "|" + action

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.duration)}
		l.windows[key] = w
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: w.resetAt}
	}

	if w.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Decision{Allowed: true, Remaining: l.limit - w.count, ResetAt: w.resetAt}
}

// Allow is Check reduced to an error: nil when allowed, *Error carrying
// the reset time when denied.
func (l *Limiter) Allow(principalID, action string) error {
	d := l.Check(principalID, action)
	if !d.Allowed {
		return &Error{ResetAt: d.ResetAt}
	}
	return nil
}

// Reset clears the window for one (principal, action) pair.
func (l *Limiter) Reset(principalID, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, principalID+"|"+action)
}

// StartCleanup launches a goroutine that prunes expired windows every two
// window lengths, until stop is closed. Tests skip it so runs stay
// deterministic.
func (l *Limiter) StartCleanup(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(l.duration * 2)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.mu.Lock()
				now := l.now()
				for key, w := range l.windows {
					if !now.Before(w.resetAt) {
						delete(l.windows, key)
					}
				}
				l.mu.Unlock()
			}
		}
	}()
}
