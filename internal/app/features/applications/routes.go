// internal/app/features/applications/routes.go
package applications

import (
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the applications API under the path where this router is
// mounted (typically "/applications" from bootstrap).
//
// Every route requires a signed-in user. Which applications a user sees and
// may change is decided by the workflow, not by route guards, except for
// counselor assignment which is admin-only. Mutations pass through the
// per-user write limiter when one is set.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeGet)
		pr.Get("/{id}/transitions", h.ServeNextStatuses)

		pr.Group(func(wr chi.Router) {
			wr.Use(h.Writes.Middleware)

			wr.Post("/", h.ServeCreate)
			wr.Patch("/{id}", h.ServeUpdateDraft)
			wr.Post("/{id}/transitions", h.ServeTransition)
			wr.With(sm.RequireRole(models.RoleAdmin)).Put("/{id}/counselor", h.ServeAssignCounselor)
		})
	})

	return r
}
