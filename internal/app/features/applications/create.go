// internal/app/features/applications/create.go
package applications

import (
	"net/http"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"github.com/dalemusser/admitportal/internal/domain/models"
)

type createRequest struct {
	UniversityID      string            `json:"university_id"`
	CourseID          string            `json:"course_id"`
	PersonalStatement string            `json:"personal_statement"`
	AdditionalInfo    string            `json:"additional_info"`
	Documents         []models.Document `json:"documents"`
}

// ServeCreate handles POST /applications. Only students may create; the
// new application is a draft owned by the caller.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := decode(w, r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uniID, err := requiredID("university_id", req.UniversityID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	courseID, err := requiredID("course_id", req.CourseID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create application")
	defer cancel()

	app, err := h.Svc.Create(ctx, actor, workflow.CreateInput{
		UniversityID:      uniID,
		CourseID:          courseID,
		PersonalStatement: htmlsanitize.Sanitize(req.PersonalStatement),
		AdditionalInfo:    htmlsanitize.Sanitize(req.AdditionalInfo),
		Documents:         cleanDocuments(req.Documents),
	})
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	w.Header().Set("Location", "/applications/"+app.ID.Hex())
	uierrors.Write(w, http.StatusCreated, app)
}

// cleanDocuments strips markup from document names and kinds. URLs are kept
// as given; the workflow checks they are present.
func cleanDocuments(docs []models.Document) []models.Document {
	if docs == nil {
		return nil
	}
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = models.Document{
			Name: htmlsanitize.Strip(d.Name),
			URL:  d.URL,
			Kind: htmlsanitize.Strip(d.Kind),
		}
	}
	return out
}
