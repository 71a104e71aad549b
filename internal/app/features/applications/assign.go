// internal/app/features/applications/assign.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
)

type assignRequest struct {
	CounselorID string `json:"counselor_id"`
}

// ServeAssignCounselor handles PUT /applications/{id}/counselor (admin only).
func (h *Handler) ServeAssignCounselor(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	var req assignRequest
	if err := decode(w, r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	counselorID, err := requiredID("counselor_id", req.CounselorID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assign counselor")
	defer cancel()

	app, err := h.Svc.AssignCounselor(ctx, actor, id, counselorID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.Write(w, http.StatusOK, app)
}
