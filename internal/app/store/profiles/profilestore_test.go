package profilestore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	profilestore "github.com/habitathq/societyhub/internal/app/store/profiles"
	"github.com/habitathq/societyhub/internal/domain/models"
	"github.com/habitathq/societyhub/internal/testutil"
)

func TestCreateAndGetByIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{
		IdentityID: "identity-create",
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.ProfileActive {
		t.Errorf("Status: got %q, want %q", created.Status, models.ProfileActive)
	}

	got, err := store.GetByIdentity(ctx, "identity-create")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if got.FullName != "Asha Rao" {
		t.Errorf("FullName: got %q", got.FullName)
	}

	if _, err := store.GetByIdentity(ctx, "identity-missing"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing profile: got %v, want ErrNoDocuments", err)
	}
}

func TestCreate_DuplicateIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if _, err := store.Create(ctx, models.Profile{IdentityID: "identity-dup"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Profile{IdentityID: "identity-dup"})
	if !errors.Is(err, profilestore.ErrDuplicateProfile) {
		t.Errorf("duplicate Create: got %v, want ErrDuplicateProfile", err)
	}
}

func TestSetAndClearJoinRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetJoinRequest upserts: no prior profile needed.
	if err := store.SetJoinRequest(ctx, "identity-jr", "req-1"); err != nil {
		t.Fatalf("SetJoinRequest failed: %v", err)
	}

	prof, err := store.GetByIdentity(ctx, "identity-jr")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if prof.JoinRequestID != "req-1" {
		t.Errorf("JoinRequestID: got %q, want %q", prof.JoinRequestID, "req-1")
	}
	if prof.Status != models.ProfileActive {
		t.Errorf("upserted profile Status: got %q", prof.Status)
	}

	if err := store.ClearJoinRequest(ctx, "identity-jr"); err != nil {
		t.Fatalf("ClearJoinRequest failed: %v", err)
	}
	prof, _ = store.GetByIdentity(ctx, "identity-jr")
	if prof.JoinRequestID != "" {
		t.Errorf("JoinRequestID after clear: got %q, want empty", prof.JoinRequestID)
	}
}

func TestApproveMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.SetJoinRequest(ctx, "identity-appr", "req-2"); err != nil {
		t.Fatalf("SetJoinRequest failed: %v", err)
	}

	societyID := primitive.NewObjectID()
	err := store.ApproveMembership(ctx, "identity-appr", societyID, "Green Acres", "A", "101", "owner")
	if err != nil {
		t.Fatalf("ApproveMembership failed: %v", err)
	}

	prof, err := store.GetByIdentity(ctx, "identity-appr")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if !prof.Approved {
		t.Error("profile should be approved")
	}
	if prof.SocietyID == nil || *prof.SocietyID != societyID {
		t.Error("SocietyID not recorded")
	}
	if prof.Wing != "A" || prof.Flat != "101" || prof.ResidentType != "owner" {
		t.Errorf("unit attributes: got %q/%q/%q", prof.Wing, prof.Flat, prof.ResidentType)
	}
	if prof.JoinRequestID != "" {
		t.Error("approval should clear the join request reference")
	}

	if err := store.ApproveMembership(ctx, "identity-nobody", societyID, "Green Acres", "A", "102", "tenant"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("approving missing profile: got %v, want ErrNoDocuments", err)
	}
}

func TestSetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Profile{IdentityID: "identity-role"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetRole(ctx, "identity-role", "wing_chairman"); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	prof, _ := store.GetByIdentity(ctx, "identity-role")
	if prof.Role != "wing_chairman" {
		t.Errorf("Role: got %q", prof.Role)
	}

	// Empty role clears the override.
	if err := store.SetRole(ctx, "identity-role", ""); err != nil {
		t.Fatalf("SetRole clear failed: %v", err)
	}
	prof, _ = store.GetByIdentity(ctx, "identity-role")
	if prof.Role != "" {
		t.Errorf("Role after clear: got %q", prof.Role)
	}

	if err := store.SetRole(ctx, "identity-missing", "admin"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("SetRole on missing profile: got %v, want ErrNoDocuments", err)
	}
}

func TestDeactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Profile{IdentityID: "identity-deact"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Deactivate(ctx, "identity-deact"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	// Soft delete: the record survives with flipped status.
	prof, err := store.GetByIdentity(ctx, "identity-deact")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if prof.Status != models.ProfileDeactivated {
		t.Errorf("Status: got %q, want %q", prof.Status, models.ProfileDeactivated)
	}
}

func TestTouchAdminLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Profile{IdentityID: "identity-touch"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.TouchAdminLogin(ctx, "identity-touch"); err != nil {
		t.Fatalf("TouchAdminLogin failed: %v", err)
	}
	prof, _ := store.GetByIdentity(ctx, "identity-touch")
	if prof.LastAdminLoginAt == nil {
		t.Error("LastAdminLoginAt should be stamped")
	}

	// Missing profiles are not an error for the login stamp.
	if err := store.TouchAdminLogin(ctx, "identity-missing"); err != nil {
		t.Errorf("TouchAdminLogin on missing profile: %v", err)
	}
}

func TestUpsertEnrichment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.UpsertEnrichment(ctx, "identity-enrich", "Ravi Iyer", "ravi@example.com", ""); err != nil {
		t.Fatalf("UpsertEnrichment failed: %v", err)
	}
	prof, err := store.GetByIdentity(ctx, "identity-enrich")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if prof.FullName != "Ravi Iyer" || prof.Email != "ravi@example.com" {
		t.Errorf("enrichment: got %q/%q", prof.FullName, prof.Email)
	}

	// Empty values never blank existing data.
	if err := store.UpsertEnrichment(ctx, "identity-enrich", "", "", "http://img"); err != nil {
		t.Fatalf("second UpsertEnrichment failed: %v", err)
	}
	prof, _ = store.GetByIdentity(ctx, "identity-enrich")
	if prof.FullName != "Ravi Iyer" {
		t.Errorf("FullName blanked: got %q", prof.FullName)
	}
	if prof.ImageURL != "http://img" {
		t.Errorf("ImageURL: got %q", prof.ImageURL)
	}
}

func TestListBySociety(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	societyID := primitive.NewObjectID()
	for _, id := range []string{"m-1", "m-2"} {
		if _, err := store.Create(ctx, models.Profile{IdentityID: id, SocietyID: &societyID}); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}
	if _, err := store.Create(ctx, models.Profile{IdentityID: "m-3", SocietyID: &societyID, Status: models.ProfileDeactivated}); err != nil {
		t.Fatalf("Create m-3 failed: %v", err)
	}

	profs, err := store.ListBySociety(ctx, societyID)
	if err != nil {
		t.Fatalf("ListBySociety failed: %v", err)
	}
	if len(profs) != 2 {
		t.Errorf("expected 2 active members, got %d", len(profs))
	}
}
