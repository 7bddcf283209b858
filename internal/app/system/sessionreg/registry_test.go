package sessionreg

import (
	"testing"
	"time"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(timeout time.Duration) (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	r := New(timeout)
	r.now = clock.now
	return r, clock
}

func TestCreateAndActiveSession(t *testing.T) {
	r, _ := newTestRegistry(0)

	s := r.Create("admin-1")
	if s.ID == "" {
		t.Fatal("expected a session id")
	}
	if !s.Active {
		t.Error("new session should be active")
	}

	got, ok := r.ActiveSession("admin-1")
	if !ok || got.ID != s.ID {
		t.Fatalf("ActiveSession = (%v, %v), want session %s", got, ok, s.ID)
	}

	if _, ok := r.ActiveSession("admin-2"); ok {
		t.Error("unknown principal should have no active session")
	}
}

func TestMultipleSessions_MostRecentlyActiveWins(t *testing.T) {
	r, clock := newTestRegistry(0)

	first := r.Create("admin-1")
	clock.advance(time.Minute)
	second := r.Create("admin-1")

	if r.ActiveCount() != 2 {
		t.Fatalf("both sessions should be tracked, got %d", r.ActiveCount())
	}

	got, _ := r.ActiveSession("admin-1")
	if got.ID != second.ID {
		t.Errorf("most recent session should win, got %s want %s", got.ID, second.ID)
	}

	// Touching the older session makes it the presence session again.
	clock.advance(time.Minute)
	if !r.Touch(first.ID) {
		t.Fatal("Touch on active session should succeed")
	}
	got, _ = r.ActiveSession("admin-1")
	if got.ID != first.ID {
		t.Errorf("touched session should win, got %s want %s", got.ID, first.ID)
	}
}

func TestTouch_UnknownOrInactive(t *testing.T) {
	r, _ := newTestRegistry(0)

	if r.Touch("nope") {
		t.Error("Touch on unknown session should return false")
	}

	s := r.Create("admin-1")
	if !r.Invalidate(s.ID) {
		t.Fatal("Invalidate should succeed")
	}
	if r.Touch(s.ID) {
		t.Error("Touch on invalidated session should return false")
	}
}

func TestInvalidate(t *testing.T) {
	r, _ := newTestRegistry(0)

	s := r.Create("admin-1")
	if !r.Invalidate(s.ID) {
		t.Fatal("Invalidate should succeed")
	}
	if r.Invalidate(s.ID) {
		t.Error("double Invalidate should return false")
	}
	if _, ok := r.ActiveSession("admin-1"); ok {
		t.Error("invalidated session must not count for presence")
	}
}

func TestSweep_ClosesIdleSessions(t *testing.T) {
	r, clock := newTestRegistry(time.Hour)

	idle := r.Create("admin-1")
	clock.advance(30 * time.Minute)
	fresh := r.Create("admin-2")
	clock.advance(31 * time.Minute) // idle is now 61m old, fresh 31m

	closed := r.Sweep()
	if closed != 1 {
		t.Fatalf("Sweep closed %d sessions, want 1", closed)
	}
	if _, ok := r.ActiveSession("admin-1"); ok {
		t.Error("idle session should have been closed")
	}
	if got, ok := r.ActiveSession("admin-2"); !ok || got.ID != fresh.ID {
		t.Error("fresh session should survive the sweep")
	}
	_ = idle
}

func TestSweep_PrunesOldEndedSessions(t *testing.T) {
	r, clock := newTestRegistry(time.Hour)

	s := r.Create("admin-1")
	r.Invalidate(s.ID)
	clock.advance(2 * time.Hour)

	r.Sweep()
	r.mu.Lock()
	_, exists := r.sessions[s.ID]
	r.mu.Unlock()
	if exists {
		t.Error("ended session past the cutoff should be pruned")
	}
}
