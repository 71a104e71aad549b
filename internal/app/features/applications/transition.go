// internal/app/features/applications/transition.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
)

type transitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// ServeTransition handles POST /applications/{id}/transitions.
//
// 404 when the application is missing or invisible to the actor, 403 when it
// is visible but the actor may not move it, 422 for an unknown status or an
// edge the transition graph does not allow.
func (h *Handler) ServeTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	var req transitionRequest
	if err := decode(w, r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if req.Status == "" {
		h.ErrLog.Respond(w, r, &workflow.ValidationError{Field: "status", Reason: "is required"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "transition application")
	defer cancel()

	app, err := h.Svc.Transition(ctx, actor, id, req.Status, htmlsanitize.Strip(req.Notes))
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.Write(w, http.StatusOK, app)
}
