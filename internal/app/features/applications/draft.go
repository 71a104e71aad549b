// internal/app/features/applications/draft.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/dalemusser/admitportal/internal/domain/models"
)

// draftRequest uses pointers so an omitted field is left unchanged and an
// explicit "" clears it.
type draftRequest struct {
	PersonalStatement *string            `json:"personal_statement"`
	AdditionalInfo    *string            `json:"additional_info"`
	Documents         *[]models.Document `json:"documents"`
}

// ServeUpdateDraft handles PATCH /applications/{id}. Only the owning student
// may edit, and only while the application is a draft.
func (h *Handler) ServeUpdateDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	var req draftRequest
	if err := decode(w, r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	in := workflow.PayloadInput{}
	if req.PersonalStatement != nil {
		s := htmlsanitize.Sanitize(*req.PersonalStatement)
		in.PersonalStatement = &s
	}
	if req.AdditionalInfo != nil {
		s := htmlsanitize.Sanitize(*req.AdditionalInfo)
		in.AdditionalInfo = &s
	}
	if req.Documents != nil {
		docs := cleanDocuments(*req.Documents)
		if docs == nil {
			docs = []models.Document{}
		}
		in.Documents = &docs
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update draft")
	defer cancel()

	app, err := h.Svc.UpdateDraft(ctx, actor, id, in)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.Write(w, http.StatusOK, app)
}
