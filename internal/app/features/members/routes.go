// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
	"github.com/habitathq/societyhub/internal/app/system/auditlog"
	"github.com/habitathq/societyhub/internal/app/system/auth"
	"github.com/habitathq/societyhub/internal/app/system/gates"
)

// Routes returns the member management subrouter; mounted under /members.
func Routes(h *Handler, authn *auth.Authenticator, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.Middleware(apierrors.WriteError))

	r.Group(func(r chi.Router) {
		r.Use(gates.RequirePermission("users:write", audit))
		r.Put("/{identityID}/role", h.SetRole)
		r.Put("/{identityID}/wings", h.AssignWings)
		r.Delete("/{identityID}", h.Deactivate)
	})

	return r
}

// SocietyRoutes returns the member listing subrouter; mounted inside the
// societies router under /{societyID}/members.
func SocietyRoutes(h *Handler, authn *auth.Authenticator, audit *auditlog.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.Middleware(apierrors.WriteError))
	r.With(gates.RequirePermission("users:read", audit)).
		Get("/", h.List)
	return r
}
