// internal/app/features/members/handler.go

// Package members exposes the admin directory of a society's residents:
// listing (wing-scoped for wing chairmen), role changes, wing assignment,
// and deactivation.
package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	profilestore "github.com/habitathq/societyhub/internal/app/store/profiles"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/authz"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/timeouts"
	"github.com/habitathq/societyhub/internal/domain/models"
)

// Handler serves the member directory endpoints.
type Handler struct {
	Profiles *profilestore.Store
	Audit    *auditlog.Recorder
	Log      *zap.Logger
}

// NewHandler constructs a members Handler.
func NewHandler(profiles *profilestore.Store, audit *auditlog.Recorder, logger *zap.Logger) *Handler {
	return &Handler{Profiles: profiles, Audit: audit, Log: logger}
}

// List handles GET /societies/{societyID}/members. Wing chairmen see only
// the wings they are scoped to; other granted roles see the whole society.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "authentication required")
		return
	}

	societyID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "societyID"))
	if err != nil {
		apierrors.BadRequest(w, "invalid society id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profs, err := h.Profiles.ListBySociety(ctx, societyID)
	if err != nil {
		h.Log.Error("member list failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}

	if principal.Role == authz.RoleWingChairman {
		profs = filterByWings(profs, h.wingScope(ctx, principal))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Members []models.Profile `json:"members"`
	}{Members: profs})
}

// wingScope resolves the wings a wing chairman may see: the explicit
// assignment list from context when present, else their own wing from the
// profile record.
func (h *Handler) wingScope(ctx context.Context, principal *identity.AdminPrincipal) []string {
	ownWing := ""
	if prof, err := h.Profiles.GetByIdentity(ctx, principal.ID); err == nil {
		ownWing = prof.Wing
	}
	return authz.AllowedWings(principal.Wings, ownWing)
}

func filterByWings(profs []models.Profile, wings []string) []models.Profile {
	allowed := make(map[string]bool, len(wings))
	for _, wing := range wings {
		allowed[wing] = true
	}
	out := profs[:0]
	for _, p := range profs {
		if allowed[p.Wing] {
			out = append(out, p)
		}
	}
	return out
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole handles PUT /members/{identityID}/role. An empty role clears the
// override, returning the member to plain-resident standing.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "authentication required")
		return
	}

	identityID := chi.URLParam(r, "identityID")
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "invalid request body")
		return
	}
	if req.Role != "" {
		if _, ok := authz.ParseRole(req.Role); !ok {
			apierrors.BadRequest(w, "unknown role")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := h.Profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}
	if err := h.Profiles.SetRole(ctx, identityID, req.Role); err != nil {
		h.Log.Error("role change failed", zap.Error(err), zap.String("identity_id", identityID))
		apierrors.WriteError(w, err)
		return
	}

	h.Audit.RoleChanged(ctx, principal.ID, string(principal.Role), identityID, req.Role, prof.SocietyID)
	w.WriteHeader(http.StatusNoContent)
}

type assignWingsRequest struct {
	Wings []string `json:"wings"`
}

// AssignWings handles PUT /members/{identityID}/wings.
func (h *Handler) AssignWings(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "authentication required")
		return
	}

	identityID := chi.URLParam(r, "identityID")
	var req assignWingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := h.Profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}
	if err := h.Profiles.SetAssignedWings(ctx, identityID, req.Wings); err != nil {
		h.Log.Error("wing assignment failed", zap.Error(err), zap.String("identity_id", identityID))
		apierrors.WriteError(w, err)
		return
	}

	h.Audit.WingsAssigned(ctx, principal.ID, string(principal.Role), identityID, prof.SocietyID, req.Wings)
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles DELETE /members/{identityID}. The record is kept with
// deactivated status so audit events keep a subject.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "authentication required")
		return
	}

	identityID := chi.URLParam(r, "identityID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := h.Profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.Respond(w, http.StatusNotFound, "profile_not_found", "no profile for this identity")
			return
		}
		apierrors.WriteError(w, err)
		return
	}
	if err := h.Profiles.Deactivate(ctx, identityID); err != nil {
		h.Log.Error("deactivation failed", zap.Error(err), zap.String("identity_id", identityID))
		apierrors.WriteError(w, err)
		return
	}

	h.Audit.ProfileDeactivated(ctx, principal.ID, string(principal.Role), identityID, prof.SocietyID)
	w.WriteHeader(http.StatusNoContent)
}
