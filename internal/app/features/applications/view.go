// internal/app/features/applications/view.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
)

// ServeGet handles GET /applications/{id}. Applications the actor cannot
// see answer 404, the same as ones that do not exist.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get application")
	defer cancel()

	view, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.Write(w, http.StatusOK, view)
}

type nextStatusesResponse struct {
	ID       string   `json:"id"`
	Statuses []string `json:"statuses"`
}

// ServeNextStatuses handles GET /applications/{id}/transitions: the statuses
// the actor could move the application to right now.
func (h *Handler) ServeNextStatuses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "next statuses")
	defer cancel()

	next, err := h.Svc.NextStatuses(ctx, actor, id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if next == nil {
		next = []string{}
	}
	uierrors.Write(w, http.StatusOK, nextStatusesResponse{ID: id.Hex(), Statuses: next})
}
