// internal/app/features/auditevents/routes.go
package auditevents

import (
	"github.com/go-chi/chi/v5"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/gates"
)

// Routes returns the audit trail subrouter; mounted under /audit-events.
func Routes(h *Handler, authn *auth.Authenticator, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.Middleware(apierrors.WriteError))
	r.Use(gates.RequirePermission("analytics:read", audit))
	r.Get("/", h.List)
	r.Get("/recent", h.Recent)
	r.Get("/actors/{actorID}", h.ByActor)
	return r
}
