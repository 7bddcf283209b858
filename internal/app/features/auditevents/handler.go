// internal/app/features/auditevents/handler.go

// Package auditevents exposes the audit trail to admins: filtered listing
// plus a per-actor convenience view.
package auditevents

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/store/audit"
	"github.com/habitathq/societyhub/internal/app/system/timeouts"
)

// Handler serves the audit trail endpoints.
type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an auditevents Handler.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

// eventResponse is the JSON shape for one audit record.
type eventResponse struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	SocietyID     string            `json:"society_id,omitempty"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id"`
	ActorRole     string            `json:"actor_role,omitempty"`
	SubjectID     string            `json:"subject_id,omitempty"`
	Resource      string            `json:"resource,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toResponse(ev audit.Event) eventResponse {
	resp := eventResponse{
		ID:            ev.ID.Hex(),
		Timestamp:     ev.Timestamp,
		Category:      ev.Category,
		EventType:     ev.EventType,
		ActorID:       ev.ActorID,
		ActorRole:     ev.ActorRole,
		SubjectID:     ev.SubjectID,
		Resource:      ev.Resource,
		Success:       ev.Success,
		FailureReason: ev.FailureReason,
		Details:       ev.Details,
	}
	if ev.SocietyID != nil {
		resp.SocietyID = ev.SocietyID.Hex()
	}
	return resp
}

// parseFilter builds a QueryFilter from the request's query parameters.
func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:   q.Get("actor_id"),
		SubjectID: q.Get("subject_id"),
		Category:  q.Get("category"),
		EventType: q.Get("event_type"),
	}

	if raw := q.Get("society_id"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		filter.SocietyID = &oid
	}
	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		filter.StartTime = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		filter.EndTime = &t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		filter.Offset = n
	}

	return filter, nil
}

// List handles GET /audit-events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		apierrors.BadRequest(w, "invalid filter: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit count failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}

	resp := struct {
		Events []eventResponse `json:"events"`
		Total  int64           `json:"total"`
	}{Events: make([]eventResponse, 0, len(events)), Total: total}
	for _, ev := range events {
		resp.Events = append(resp.Events, toResponse(ev))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Recent handles GET /audit-events/recent: the latest events with no
// filtering, for the admin dashboard's activity feed.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Store.GetRecent(ctx, limit)
	if err != nil {
		h.Log.Error("audit recent query failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}

	resp := struct {
		Events []eventResponse `json:"events"`
	}{Events: make([]eventResponse, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, toResponse(ev))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ByActor handles GET /audit-events/actors/{actorID}.
func (h *Handler) ByActor(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "actorID")
	if actorID == "" {
		apierrors.BadRequest(w, "missing actor id")
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Store.GetByActor(ctx, actorID, limit)
	if err != nil {
		h.Log.Error("audit actor query failed", zap.Error(err))
		apierrors.WriteError(w, err)
		return
	}

	resp := struct {
		Events []eventResponse `json:"events"`
	}{Events: make([]eventResponse, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, toResponse(ev))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
