// internal/app/features/userinfo/routes.go
package userinfo

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /me on r. The route is open; the handler reads
// whatever user LoadSessionUser placed on the request.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/me", h.ServeMe)
}
