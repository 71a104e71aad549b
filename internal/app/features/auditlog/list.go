// internal/app/features/auditlog/list.go
package auditlog

import (
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/admitportal/internal/app/features/errors"
	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"github.com/dalemusser/admitportal/internal/app/workflow"
	"go.uber.org/zap"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// ServeList handles GET /audit, newest first.
//
// Filters: category, event_type, application_id, actor_id, start_date and
// end_date (YYYY-MM-DD, inclusive, UTC), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseFilter(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	// Names are a convenience; a failed lookup still returns the events.
	users, err := h.Users.ByID(ctx)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			if u, ok := users[*e.ActorID]; ok {
				item.ActorName = u.FullName
			}
		}
		if e.ApplicationID != nil {
			item.ApplicationID = e.ApplicationID.Hex()
		}
		items = append(items, item)
	}

	uierrors.Write(w, http.StatusOK, listResponse{
		Data: items,
		Pagination: docstore.Pagination{
			Page:       page,
			Limit:      pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
			HasNext:    page*pageSize < total,
			HasPrev:    page > 1,
		},
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	var f audit.QueryFilter

	f.Category = normalize.Status(q.Get("category"))
	if f.Category != "" && eventTypesForCategory(f.Category) == nil {
		return f, 0, &workflow.ValidationError{Field: "category", Reason: "unknown category"}
	}
	f.EventType = normalize.Status(q.Get("event_type"))
	if f.EventType != "" && !slices.Contains(eventTypesForCategory(f.Category), f.EventType) {
		return f, 0, &workflow.ValidationError{Field: "event_type", Reason: "unknown event type for category"}
	}

	if raw := normalize.FilterID(q.Get("application_id")); raw != "" {
		id, ok := idgen.ParseHex(raw)
		if !ok {
			return f, 0, &workflow.ValidationError{Field: "application_id", Reason: "not a valid id"}
		}
		f.ApplicationID = &id
	}
	if raw := normalize.FilterID(q.Get("actor_id")); raw != "" {
		id, ok := idgen.ParseHex(raw)
		if !ok {
			return f, 0, &workflow.ValidationError{Field: "actor_id", Reason: "not a valid id"}
		}
		f.ActorID = &id
	}

	if s := normalize.QueryParam(q.Get("start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, 0, &workflow.ValidationError{Field: "start_date", Reason: "want YYYY-MM-DD"}
		}
		f.StartTime = &t
	}
	if s := normalize.QueryParam(q.Get("end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, 0, &workflow.ValidationError{Field: "end_date", Reason: "want YYYY-MM-DD"}
		}
		// End of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}

	page := 1
	if p, err := strconv.Atoi(normalize.QueryParam(q.Get("page"))); err == nil && p > 0 {
		page = min(p, math.MaxInt/pageSize)
	}
	return f, page, nil
}
