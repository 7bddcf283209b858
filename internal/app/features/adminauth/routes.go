// internal/app/features/adminauth/routes.go
package adminauth

import (
	"github.com/go-chi/chi/v5"

	apierrors "github.com/habitathq/societyhub/internal/app/features/errors"
)

// Routes returns the admin session subrouter; mounted under /admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Login authenticates inline; no middleware.
	r.Post("/session", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.Authn.Middleware(apierrors.WriteError))
		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
	})

	return r
}
