package auditlog_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/store/audit"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/testutil"
)

func TestRecorder_NilRecorder(t *testing.T) {
	// nil recorder should be a no-op (not panic)
	var rec *auditlog.Recorder
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec.Record(ctx, audit.Event{EventType: "test"})
	rec.AdminLogin(ctx, "identity-1", "admin", nil, "external")
	rec.JoinRequestWithdrawn(ctx, "identity-1", primitive.NewObjectID(), "req-1")
}

func TestRecorder_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:       "off",
		Membership: "off",
		Admin:      "off",
	})

	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminLogin,
		ActorID:   "identity-off",
		Success:   true,
	})

	events, err := store.GetByActor(ctx, "identity-off", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestRecorder_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:       "db",
		Membership: "db",
		Admin:      "db",
	})

	rec.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminLogin,
		ActorID:   "identity-db",
		Success:   true,
	})

	events, err := store.GetByActor(ctx, "identity-db", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestRecorder_JoinRequestReviewed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	societyID := primitive.NewObjectID()
	rec := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Membership: "db",
	})

	rec.JoinRequestReviewed(ctx, "admin-1", "admin", societyID, "req-1", "resident-1", true, "")
	rec.JoinRequestReviewed(ctx, "admin-1", "admin", societyID, "req-2", "resident-2", false, "flat occupied")

	events, err := store.GetByActor(ctx, "admin-1", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// Most recent first.
	if events[0].EventType != audit.EventJoinRequestRejected {
		t.Errorf("EventType: got %q, want %q", events[0].EventType, audit.EventJoinRequestRejected)
	}
	if events[0].Details["comment"] != "flat occupied" {
		t.Errorf("comment detail: got %q", events[0].Details["comment"])
	}
	if events[1].EventType != audit.EventJoinRequestApproved {
		t.Errorf("EventType: got %q, want %q", events[1].EventType, audit.EventJoinRequestApproved)
	}
	if events[1].SubjectID != "resident-1" {
		t.Errorf("SubjectID: got %q, want %q", events[1].SubjectID, "resident-1")
	}
}

func TestRecorder_CategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Auth off, membership db.
	rec := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:       "off",
		Membership: "db",
	})

	rec.AdminLogin(ctx, "actor-filtered", "admin", nil, "external")
	rec.JoinRequestWithdrawn(ctx, "actor-filtered", primitive.NewObjectID(), "req-9")

	events, err := store.GetByActor(ctx, "actor-filtered", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the membership event, got %d", len(events))
	}
	if events[0].EventType != audit.EventJoinRequestWithdrawn {
		t.Errorf("EventType: got %q, want %q", events[0].EventType, audit.EventJoinRequestWithdrawn)
	}
}

func TestRecorder_AuthorizationDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	rec.AuthorizationDenied(ctx, "mod-1", "moderator", "society:write")

	events, err := store.GetByActor(ctx, "mod-1", 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Success {
		t.Error("denial events should have Success=false")
	}
	if events[0].Details["permission"] != "society:write" {
		t.Errorf("permission detail: got %q", events[0].Details["permission"])
	}
}
