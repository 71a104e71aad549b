// internal/app/features/applications/list.go
package applications

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
)

// ServeList handles GET /applications.
//
// Query parameters (all optional):
//
//	page, limit                       paging; clamped by the store limits
//	sort                              created_at|updated_at|submitted_at|status
//	order                             asc (default) or desc
//	status                            one application status
//	student_id, university_id,
//	course_id, counselor_id           hex ids; "all" means unset
//
// Students always get their own applications whatever they ask for.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	filter, page, err := parseListQuery(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list applications")
	defer cancel()

	res, err := h.Svc.List(ctx, actor, filter, page)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.Write(w, http.StatusOK, res)
}

func parseListQuery(r *http.Request) (workflow.Filter, docstore.PageRequest, error) {
	q := r.URL.Query()
	var (
		f   workflow.Filter
		err error
	)
	if f.StudentID, err = optionalID("student_id", normalize.FilterID(q.Get("student_id"))); err != nil {
		return f, docstore.PageRequest{}, err
	}
	if f.UniversityID, err = optionalID("university_id", normalize.FilterID(q.Get("university_id"))); err != nil {
		return f, docstore.PageRequest{}, err
	}
	if f.CourseID, err = optionalID("course_id", normalize.FilterID(q.Get("course_id"))); err != nil {
		return f, docstore.PageRequest{}, err
	}
	if f.AssignedCounselorID, err = optionalID("counselor_id", normalize.FilterID(q.Get("counselor_id"))); err != nil {
		return f, docstore.PageRequest{}, err
	}
	if s := normalize.Status(q.Get("status")); s != "all" {
		f.Status = s
	}

	page := docstore.PageRequest{
		Page:  atoiOrZero(q.Get("page")),
		Limit: atoiOrZero(q.Get("limit")),
		Sort: docstore.Sort{
			Field: normalize.QueryParam(q.Get("sort")),
			Desc:  normalize.QueryParam(q.Get("order")) == "desc",
		},
	}
	return f, page, nil
}

// atoiOrZero parses a paging parameter. Garbage reads as 0, which the store
// replaces with its default.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(normalize.QueryParam(s))
	if err != nil {
		return 0
	}
	return n
}
