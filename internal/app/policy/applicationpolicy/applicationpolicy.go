// Package applicationpolicy decides which applications an actor may see and
// change.
//
// Visibility rules:
//   - Students see only their own applications, whatever filter they send.
//   - Counselors see the applications assigned to them, or any one student's
//     applications when the request names that student. They never see drafts.
//   - Admins see everything; their filter passes through unchanged.
//   - Any other role sees nothing.
//
// Every read of the applications collection on behalf of an actor must go
// through ResolveListScope or CanView first.
package applicationpolicy

import (
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller, as established by the login layer.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// IsZero reports whether a is the unauthenticated actor.
func (a Actor) IsZero() bool { return a.ID.IsZero() }

// RequestFilter is what a caller asks to see. Nil or empty fields do not filter.
type RequestFilter struct {
	StudentID           *primitive.ObjectID
	UniversityID        *primitive.ObjectID
	CourseID            *primitive.ObjectID
	AssignedCounselorID *primitive.ObjectID
	Status              string
}

// ListScope is the effective query an actor is allowed to run.
type ListScope struct {
	// CanList is false when the actor may not list applications at all.
	CanList bool
	// Filter is the store predicate to apply.
	Filter docstore.Filter
	// ExcludeDrafts asks the caller to drop draft applications from the
	// store result before paging. The store only supports equality.
	ExcludeDrafts bool
}

// Keep reports whether a fetched application survives the scope's post-filter.
func (s ListScope) Keep(app models.Application) bool {
	return !s.ExcludeDrafts || app.Status != models.StatusDraft
}

// ResolveListScope computes the filter actor may use for req.
func ResolveListScope(actor Actor, req RequestFilter) ListScope {
	if actor.IsZero() {
		return ListScope{}
	}

	switch actor.Role {
	case models.RoleStudent:
		return ListScope{CanList: true, Filter: docstore.Eq("student_id", actor.ID)}

	case models.RoleCounselor:
		var f docstore.Filter
		if req.StudentID != nil {
			f = docstore.Eq("student_id", *req.StudentID)
		} else {
			f = docstore.Eq("assigned_counselor_id", actor.ID)
		}
		f = withOptional(f, req)
		return ListScope{CanList: true, Filter: f, ExcludeDrafts: true}

	case models.RoleAdmin:
		var f docstore.Filter
		if req.StudentID != nil {
			f = f.And("student_id", *req.StudentID)
		}
		if req.AssignedCounselorID != nil {
			f = f.And("assigned_counselor_id", *req.AssignedCounselorID)
		}
		return ListScope{CanList: true, Filter: withOptional(f, req)}

	default:
		return ListScope{}
	}
}

func withOptional(f docstore.Filter, req RequestFilter) docstore.Filter {
	if req.Status != "" {
		f = f.And("status", req.Status)
	}
	if req.UniversityID != nil {
		f = f.And("university_id", *req.UniversityID)
	}
	if req.CourseID != nil {
		f = f.And("course_id", *req.CourseID)
	}
	return f
}

// CanView reports whether actor may see app. It agrees with
// ResolveListScope: anything CanView accepts is reachable by some list
// request of the same actor.
func CanView(actor Actor, app models.Application) bool {
	if actor.IsZero() {
		return false
	}
	switch actor.Role {
	case models.RoleStudent:
		return app.StudentID == actor.ID
	case models.RoleCounselor:
		return app.Status != models.StatusDraft
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanMutate reports whether actor may change app at all. Individual
// transitions are further limited by CanTransition.
func CanMutate(actor Actor, app models.Application) bool {
	if !CanView(actor, app) {
		return false
	}
	switch actor.Role {
	case models.RoleStudent:
		return app.StudentID == actor.ID
	case models.RoleCounselor:
		return isAssigned(actor, app)
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanTransition reports whether actor's role allows moving app to status to.
// It does not check the workflow graph.
//
//   - Students may submit their own draft and withdraw their own application.
//   - Counselors may move applications assigned to them, but never into or
//     out of draft.
//   - Admins may make any move.
func CanTransition(actor Actor, app models.Application, to string) bool {
	if !CanMutate(actor, app) {
		return false
	}
	switch actor.Role {
	case models.RoleStudent:
		return (app.Status == models.StatusDraft && to == models.StatusSubmitted) || to == models.StatusWithdrawn
	case models.RoleCounselor:
		return app.Status != models.StatusDraft && to != models.StatusDraft
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanEditDraft reports whether actor may change app's payload.
func CanEditDraft(actor Actor, app models.Application) bool {
	return actor.Role == models.RoleStudent && app.StudentID == actor.ID && app.Status == models.StatusDraft
}

// CanAssignCounselor reports whether actor may assign counselors.
func CanAssignCounselor(actor Actor) bool {
	return !actor.IsZero() && actor.Role == models.RoleAdmin
}

// CanCreate reports whether actor may open new applications.
func CanCreate(actor Actor) bool {
	return !actor.IsZero() && actor.Role == models.RoleStudent
}

func isAssigned(actor Actor, app models.Application) bool {
	return app.AssignedCounselorID != nil && *app.AssignedCounselorID == actor.ID
}
