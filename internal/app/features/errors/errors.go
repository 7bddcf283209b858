// internal/app/features/errors/errors.go

// Package apierrors maps domain errors onto the JSON error envelope every
// endpoint shares. Handlers call WriteError with whatever their service
// returned; unknown errors become opaque 500s so internals never leak.
package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/habitathq/societyhub/internal/app/membership"
	"github.com/habitathq/societyhub/internal/app/system/authz"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/ratelimit"
)

type envelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Respond writes the JSON error envelope with the given status.
func Respond(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: errorBody{Code: code, Message: message}})
}

// WriteError maps a domain error to its status code and writes the
// envelope. Rate-limit errors carry a Retry-After header.
func WriteError(w http.ResponseWriter, err error) {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		retry := time.Until(rlErr.ResetAt)
		if retry < 0 {
			retry = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		Respond(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
		return
	}

	switch {
	case errors.Is(err, identity.ErrTokenExpired):
		Respond(w, http.StatusUnauthorized, "token_expired", "authentication token expired")
	case errors.Is(err, identity.ErrTokenInvalid):
		Respond(w, http.StatusUnauthorized, "token_invalid", "authentication token invalid")
	case errors.Is(err, identity.ErrNotAuthorized):
		Respond(w, http.StatusUnauthorized, "not_authorized", "no administrative role")
	case errors.Is(err, identity.ErrInvalidRole):
		Respond(w, http.StatusUnauthorized, "invalid_role", "unrecognized administrative role")
	case errors.Is(err, identity.ErrProviderUnavailable):
		Respond(w, http.StatusBadGateway, "provider_unavailable", "identity provider unreachable")
	case errors.Is(err, authz.ErrAuthorizationDenied):
		Respond(w, http.StatusForbidden, "forbidden", "missing permission for this operation")
	case errors.Is(err, membership.ErrNotOwner):
		Respond(w, http.StatusForbidden, "not_owner", "the request belongs to another identity")
	case errors.Is(err, membership.ErrSocietyNotFound):
		Respond(w, http.StatusNotFound, "society_not_found", "society not found")
	case errors.Is(err, membership.ErrRequestNotFound):
		Respond(w, http.StatusNotFound, "request_not_found", "join request not found")
	case errors.Is(err, membership.ErrAlreadyMember):
		Respond(w, http.StatusConflict, "already_member", "identity already belongs to a society")
	case errors.Is(err, membership.ErrDuplicatePending):
		Respond(w, http.StatusConflict, "duplicate_pending", "a pending join request already exists")
	case errors.Is(err, membership.ErrAlreadyReviewed):
		Respond(w, http.StatusConflict, "already_reviewed", "the join request was already settled")
	case errors.Is(err, membership.ErrTransientConflict):
		w.Header().Set("Retry-After", "1")
		Respond(w, http.StatusServiceUnavailable, "transient_conflict", "concurrent update conflict, retry")
	case errors.Is(err, mongo.ErrNoDocuments):
		Respond(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		Respond(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	Respond(w, http.StatusBadRequest, "bad_request", message)
}
