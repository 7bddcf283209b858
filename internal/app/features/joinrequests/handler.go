// internal/app/features/joinrequests/handler.go
package joinrequests

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/membership"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/timeouts"
)

// Handler serves the join-request lifecycle endpoints.
type Handler struct {
	Service *membership.Service
	Log     *zap.Logger
}

// NewHandler constructs a joinrequests Handler.
func NewHandler(service *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{Service: service, Log: logger}
}

type submitRequest struct {
	Wing         string `json:"wing"`
	Flat         string `json:"flat"`
	ResidentType string `json:"resident_type"`
	Contact      string `json:"contact"`
}

// Submit handles POST /societies/{societyID}/join-requests.
// The caller is the resident identified by the bearer token.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.CurrentSubject(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing identity")
		return
	}

	societyID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "societyID"))
	if err != nil {
		apierrors.BadRequest(w, "invalid society id")
		return
	}

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if body.Wing == "" || body.Flat == "" {
		apierrors.BadRequest(w, "wing and flat are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	req, err := h.Service.Submit(ctx, subjectID, societyID, membership.SubmitInput{
		Wing:         body.Wing,
		Flat:         body.Flat,
		ResidentType: body.ResidentType,
		Contact:      body.Contact,
	})
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(req)
}

// Status handles GET /me/membership.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.CurrentSubject(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing identity")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Service.Status(ctx, subjectID)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Withdraw handles DELETE /join-requests/{requestID}.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.CurrentSubject(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing identity")
		return
	}

	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		apierrors.BadRequest(w, "missing request id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	settled, err := h.Service.Withdraw(ctx, subjectID, requestID)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settled)
}

// Pending handles GET /societies/{societyID}/join-requests.
// Admin only; returns the society's pending requests.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	societyID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "societyID"))
	if err != nil {
		apierrors.BadRequest(w, "invalid society id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Service.Pending(ctx, societyID)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"requests": pending})
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

// Review handles POST /join-requests/{requestID}/review. Admin only.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing principal")
		return
	}

	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		apierrors.BadRequest(w, "missing request id")
		return
	}

	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	// Approval fans out to the profile collection as well.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	settled, err := h.Service.Review(ctx, membership.ReviewInput{
		ReviewerID:   principal.ID,
		ReviewerRole: string(principal.Role),
		RequestID:    requestID,
		Approve:      body.Approve,
		Comment:      body.Comment,
	})
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settled)
}
