// internal/app/features/societies/routes.go
package societies

import (
	"github.com/go-chi/chi/v5"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/gates"
)

// Routes returns the society catalog subrouter; mounted under /societies.
// Browsing needs any verified identity, creation needs the society:write
// grant.
func Routes(h *Handler, authn *auth.Authenticator, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authn.SubjectMiddleware(apierrors.WriteError))
		r.Get("/", h.List)
		r.Get("/{societyID}", h.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware(apierrors.WriteError))
		r.With(gates.RequirePermission("society:write", audit)).
			Post("/", h.Create)
		r.With(gates.RequirePermission("society:write", audit)).
			Delete("/{societyID}", h.Delete)
	})

	return r
}
