// internal/app/system/gates/gates.go

// Package gates provides route-level authorization and throttling
// middleware. Authentication (who is calling) happens upstream in
// auth.Middleware; gates decide whether the resolved principal may perform
// the route's operation and how often.
package gates

import (
	"net/http"
	"strings"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/authz"
	"github.com/habitathq/societyhub/internal/app/system/identity"
	"github.com/habitathq/societyhub/internal/app/system/ratelimit"
)

// RequirePermission gates a route on one "resource:action" permission.
// Denials are audited and answered with the standard 403 envelope.
func RequirePermission(permission string, audit *auditlog.Recorder) func(http.Handler) http.Handler {
	resource, action, _ := strings.Cut(permission, ":")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.CurrentPrincipal(r)
			if !ok {
				apierrors.WriteError(w, identity.ErrNotAuthorized)
				return
			}
			if err := authz.Require(principal.Role, resource, action); err != nil {
				audit.AuthorizationDenied(r.Context(), principal.ID, string(principal.Role), permission)
				apierrors.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Throttle counts the request against the caller's window for the named
// action and rejects with 429 once the window is spent. The caller is the
// resolved principal when present, otherwise the verified subject, so both
// admin and resident routes can be throttled.
func Throttle(limiter *ratelimit.Limiter, action string, audit *auditlog.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID := ""
			if principal, ok := auth.CurrentPrincipal(r); ok {
				callerID = principal.ID
			} else if subjectID, ok := auth.CurrentSubject(r); ok {
				callerID = subjectID
			}
			if callerID == "" {
				apierrors.WriteError(w, identity.ErrNotAuthorized)
				return
			}
			if err := limiter.Allow(callerID, action); err != nil {
				audit.RateLimited(r.Context(), callerID, action)
				apierrors.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Principal is a convenience for handlers behind auth.Middleware; the
// second return is false only when a route was wired without it.
func Principal(r *http.Request) (*identity.AdminPrincipal, bool) {
	return auth.CurrentPrincipal(r)
}
