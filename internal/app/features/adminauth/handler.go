// internal/app/features/adminauth/handler.go

// Package adminauth exposes the admin session endpoints: exchange a bearer
// token for a cookie session, inspect the resolved principal, end the
// session.
package adminauth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/identity"
)

// Handler serves the admin session endpoints.
type Handler struct {
	Authn *auth.Authenticator
	Audit *auditlog.Recorder
	Log   *zap.Logger
}

// NewHandler constructs an adminauth Handler.
func NewHandler(authn *auth.Authenticator, audit *auditlog.Recorder, logger *zap.Logger) *Handler {
	return &Handler{Authn: authn, Audit: audit, Log: logger}
}

// principalResponse is the JSON shape for a resolved principal.
type principalResponse struct {
	ID              string   `json:"id"`
	Role            string   `json:"role"`
	SocietyID       string   `json:"society_id,omitempty"`
	SocietyName     string   `json:"society_name,omitempty"`
	Wings           []string `json:"wings,omitempty"`
	Permissions     []string `json:"permissions"`
	Provenance      string   `json:"provenance"`
	IsExternalAdmin bool     `json:"is_external_admin"`
}

func toResponse(p *identity.AdminPrincipal) principalResponse {
	resp := principalResponse{
		ID:              p.ID,
		Role:            string(p.Role),
		SocietyName:     p.SocietyName,
		Wings:           p.Wings,
		Permissions:     p.Permissions,
		Provenance:      p.Provenance,
		IsExternalAdmin: p.IsExternalAdmin,
	}
	if p.SocietyID != nil {
		resp.SocietyID = p.SocietyID.Hex()
	}
	return resp
}

// Login handles POST /admin/session. The bearer token arrives in the
// Authorization header; on success it is copied into the session cookie so
// browser clients hold a session without resending the header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Authn.Authenticate(r)
	if err != nil {
		h.Log.Debug("admin login failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}

	if token := headerToken(r); token != "" {
		if err := auth.SaveToken(w, r, token); err != nil {
			h.Log.Warn("saving token to session failed", zap.Error(err))
		}
	}

	h.Audit.AdminLogin(r.Context(), principal.ID, string(principal.Role), principal.SocietyID, principal.Provenance)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResponse(principal))
}

// Me handles GET /admin/me. Runs behind the authentication middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing principal")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResponse(principal))
}

// Logout handles POST /admin/logout. Runs behind the authentication
// middleware.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if principal, ok := auth.CurrentPrincipal(r); ok {
		h.Audit.AdminLogout(r.Context(), principal.ID)
	}
	h.Authn.EndSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func headerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
