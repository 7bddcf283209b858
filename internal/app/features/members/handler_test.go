package members_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/habitathq/societyhub/internal/app/features/members"
	profilestore "github.com/habitathq/societyhub/internal/app/store/profiles"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/authz"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/domain/models"
	"github.com/habitathq/societyhub/internal/testutil"
)

func seedResident(t *testing.T, store *profilestore.Store, ctx context.Context, identityID string, societyID primitive.ObjectID, wing string) {
	t.Helper()
	_, err := store.Create(ctx, models.Profile{
		IdentityID: identityID,
		SocietyID:  &societyID,
		Wing:       wing,
		Flat:       "101",
		Approved:   true,
	})
	if err != nil {
		t.Fatalf("seeding profile %s: %v", identityID, err)
	}
}

func adminRequest(r *http.Request, role authz.Role) *http.Request {
	return auth.WithPrincipal(r, &identity.AdminPrincipal{ID: "admin-1", Role: role})
}

func TestList_WholeSociety(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	seedResident(t, store, ctx, "res-a", societyID, "A")
	seedResident(t, store, ctx, "res-b", societyID, "B")
	seedResident(t, store, ctx, "res-other", primitive.NewObjectID(), "A")

	h := members.NewHandler(store, nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/societies/x/members", nil)
	req = testutil.WithChiURLParam(req, "societyID", societyID.Hex())
	req = adminRequest(req, authz.RoleAdmin)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Members []models.Profile `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(resp.Members) != 2 {
		t.Errorf("members: got %d, want 2", len(resp.Members))
	}
}

func TestList_WingChairmanScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	seedResident(t, store, ctx, "res-a1", societyID, "A")
	seedResident(t, store, ctx, "res-a2", societyID, "A")
	seedResident(t, store, ctx, "res-b1", societyID, "B")

	h := members.NewHandler(store, nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/societies/x/members", nil)
	req = testutil.WithChiURLParam(req, "societyID", societyID.Hex())
	req = auth.WithPrincipal(req, &identity.AdminPrincipal{
		ID:    "chairman-1",
		Role:  authz.RoleWingChairman,
		Wings: []string{"A"},
	})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Members []models.Profile `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(resp.Members) != 2 {
		t.Fatalf("members: got %d, want the 2 wing-A residents", len(resp.Members))
	}
	for _, m := range resp.Members {
		if m.Wing != "A" {
			t.Errorf("wing scope leaked: %s in wing %s", m.IdentityID, m.Wing)
		}
	}
}

func TestList_ChairmanFallsBackToOwnWing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	// The chairman's own profile sits in wing B with no explicit assignment.
	seedResident(t, store, ctx, "chairman-2", societyID, "B")
	seedResident(t, store, ctx, "res-a1", societyID, "A")
	seedResident(t, store, ctx, "res-b1", societyID, "B")

	h := members.NewHandler(store, nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/societies/x/members", nil)
	req = testutil.WithChiURLParam(req, "societyID", societyID.Hex())
	req = auth.WithPrincipal(req, &identity.AdminPrincipal{
		ID:   "chairman-2",
		Role: authz.RoleWingChairman,
	})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Members []models.Profile `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	for _, m := range resp.Members {
		if m.Wing != "B" {
			t.Errorf("expected only wing B, got %s in wing %s", m.IdentityID, m.Wing)
		}
	}
	if len(resp.Members) != 2 {
		t.Errorf("members: got %d, want 2", len(resp.Members))
	}
}

func TestSetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	seedResident(t, store, ctx, "res-promote", societyID, "A")

	h := members.NewHandler(store, nil, zap.NewNop())

	body := bytes.NewBufferString(`{"role":"moderator"}`)
	req := httptest.NewRequest("PUT", "/members/res-promote/role", body)
	req = testutil.WithChiURLParam(req, "identityID", "res-promote")
	req = adminRequest(req, authz.RoleAdmin)
	rec := httptest.NewRecorder()

	h.SetRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	prof, err := store.GetByIdentity(ctx, "res-promote")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if prof.Role != "moderator" {
		t.Errorf("role: got %q, want %q", prof.Role, "moderator")
	}
}

func TestSetRole_UnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := members.NewHandler(profilestore.New(db), nil, zap.NewNop())

	body := bytes.NewBufferString(`{"role":"emperor"}`)
	req := httptest.NewRequest("PUT", "/members/res-1/role", body)
	req = testutil.WithChiURLParam(req, "identityID", "res-1")
	req = adminRequest(req, authz.RoleAdmin)
	rec := httptest.NewRecorder()

	h.SetRole(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSetRole_MissingProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := members.NewHandler(profilestore.New(db), nil, zap.NewNop())

	body := bytes.NewBufferString(`{"role":"admin"}`)
	req := httptest.NewRequest("PUT", "/members/ghost/role", body)
	req = testutil.WithChiURLParam(req, "identityID", "ghost")
	req = adminRequest(req, authz.RoleSuperAdmin)
	rec := httptest.NewRecorder()

	h.SetRole(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAssignWings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	seedResident(t, store, ctx, "chairman-3", societyID, "A")

	h := members.NewHandler(store, nil, zap.NewNop())

	body := bytes.NewBufferString(`{"wings":["A","C"]}`)
	req := httptest.NewRequest("PUT", "/members/chairman-3/wings", body)
	req = testutil.WithChiURLParam(req, "identityID", "chairman-3")
	req = adminRequest(req, authz.RoleAdmin)
	rec := httptest.NewRecorder()

	h.AssignWings(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	prof, err := store.GetByIdentity(ctx, "chairman-3")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if len(prof.AssignedWings) != 2 || prof.AssignedWings[0] != "A" || prof.AssignedWings[1] != "C" {
		t.Errorf("assigned wings: got %v", prof.AssignedWings)
	}
}

func TestDeactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := profilestore.New(db)
	societyID := primitive.NewObjectID()
	seedResident(t, store, ctx, "res-gone", societyID, "A")

	h := members.NewHandler(store, nil, zap.NewNop())

	req := httptest.NewRequest("DELETE", "/members/res-gone", nil)
	req = testutil.WithChiURLParam(req, "identityID", "res-gone")
	req = adminRequest(req, authz.RoleAdmin)
	rec := httptest.NewRecorder()

	h.Deactivate(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	prof, err := store.GetByIdentity(ctx, "res-gone")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if prof.Status != models.ProfileDeactivated {
		t.Errorf("status: got %q, want %q", prof.Status, models.ProfileDeactivated)
	}

	// Deactivated profiles drop out of the society listing.
	profs, err := store.ListBySociety(ctx, societyID)
	if err != nil {
		t.Fatalf("ListBySociety failed: %v", err)
	}
	if len(profs) != 0 {
		t.Errorf("listing: got %d, want 0", len(profs))
	}
}
