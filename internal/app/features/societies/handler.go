// internal/app/features/societies/handler.go

// Package societies exposes the society catalog: admins create societies,
// any verified identity browses them when choosing where to submit a join
// request.
package societies

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/store/societies"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/sanitize"
	"github.com/habitathq/societyhub/internal/app/system/timeouts"
	"github.com/habitathq/societyhub/internal/domain/models"
)

// Handler serves the society catalog endpoints.
type Handler struct {
	Store *societystore.Store
	Audit *auditlog.Recorder
	Log   *zap.Logger
}

// NewHandler constructs a societies Handler.
func NewHandler(store *societystore.Store, audit *auditlog.Recorder, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Audit: audit, Log: logger}
}

// societyResponse is the catalog JSON shape; join requests are served by
// their own feature and never embedded here.
type societyResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	Pending  int    `json:"pending_requests"`
}

func toResponse(soc models.Society) societyResponse {
	pending := 0
	for _, req := range soc.Requests {
		if req.IsPending() {
			pending++
		}
	}
	return societyResponse{
		ID:       soc.ID.Hex(),
		Name:     soc.Name,
		Address:  soc.Address,
		City:     soc.City,
		Capacity: soc.Capacity,
		Pending:  pending,
	}
}

type createRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
}

// Create handles POST /societies. Admin only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing principal")
		return
	}

	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	sanitize.Fields(&body.Name, &body.Address, &body.City)
	if body.Name == "" {
		apierrors.BadRequest(w, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Store.Create(ctx, models.Society{
		Name:     body.Name,
		Address:  body.Address,
		City:     body.City,
		Capacity: body.Capacity,
	})
	if err != nil {
		if errors.Is(err, societystore.ErrDuplicateSociety) {
			apierrors.Respond(w, http.StatusConflict, "duplicate_society", "a society with this name already exists")
			return
		}
		apierrors.WriteError(w, err)
		return
	}

	h.Audit.SocietyCreated(ctx, principal.ID, string(principal.Role), created.ID, created.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toResponse(created))
}

// Get handles GET /societies/{societyID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "societyID"))
	if err != nil {
		apierrors.BadRequest(w, "invalid society id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	soc, err := h.Store.GetByID(ctx, id)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResponse(soc))
}

// List handles GET /societies. An optional ?city= filter narrows the
// catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if city := sanitize.Text(r.URL.Query().Get("city")); city != "" {
		filter["city"] = city
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	socs, err := h.Store.List(ctx, filter)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}
	total, err := h.Store.Count(ctx, filter)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}

	resp := struct {
		Societies []societyResponse `json:"societies"`
		Total     int64             `json:"total"`
	}{Societies: make([]societyResponse, 0, len(socs)), Total: total}
	for _, soc := range socs {
		resp.Societies = append(resp.Societies, toResponse(soc))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Delete handles DELETE /societies/{societyID}. Admin only. A society still
// holding pending join requests cannot be removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierrors.Respond(w, http.StatusUnauthorized, "not_authorized", "missing principal")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "societyID"))
	if err != nil {
		apierrors.BadRequest(w, "invalid society id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	soc, err := h.Store.GetByID(ctx, id)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}
	for _, req := range soc.Requests {
		if req.IsPending() {
			apierrors.Respond(w, http.StatusConflict, "society_not_empty", "society still has pending join requests")
			return
		}
	}

	deleted, err := h.Store.Delete(ctx, id)
	if err != nil {
		apierrors.WriteError(w, err)
		return
	}
	if deleted == 0 {
		apierrors.Respond(w, http.StatusNotFound, "society_not_found", "no such society")
		return
	}

	h.Audit.SocietyDeleted(ctx, principal.ID, string(principal.Role), id, soc.Name)
	w.WriteHeader(http.StatusNoContent)
}
