// internal/app/features/joinrequests/routes.go
package joinrequests

import (
	"github.com/go-chi/chi/v5"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/gates"
	"github.com/habitathq/societyhub/internal/app/system/ratelimit"
)

// Routes serves the request-scoped endpoints; mounted under
// /join-requests. Withdrawal needs only a verified identity; review goes
// through full principal resolution, the permission gate, and the rate
// limiter.
func Routes(h *Handler, authn *auth.Authenticator, limiter *ratelimit.Limiter, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authn.SubjectMiddleware(apierrors.WriteError))
		r.Delete("/{requestID}", h.Withdraw)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware(apierrors.WriteError))
		r.With(
			gates.RequirePermission("join_requests:approve", audit),
			gates.Throttle(limiter, "review_join_request", audit),
		).Post("/{requestID}/review", h.Review)
	})

	return r
}

// SocietyRoutes serves the society-scoped endpoints; mounted under
// /societies/{societyID}/join-requests.
func SocietyRoutes(h *Handler, authn *auth.Authenticator, limiter *ratelimit.Limiter, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authn.SubjectMiddleware(apierrors.WriteError))
		r.With(gates.Throttle(limiter, "submit_join_request", audit)).
			Post("/", h.Submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware(apierrors.WriteError))
		r.With(gates.RequirePermission("join_requests:read", audit)).
			Get("/", h.Pending)
	})

	return r
}

// StatusRoutes serves the caller's own membership view; mounted under /me.
func StatusRoutes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.SubjectMiddleware(apierrors.WriteError))
	r.Get("/membership", h.Status)
	return r
}
