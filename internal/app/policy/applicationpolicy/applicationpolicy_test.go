package applicationpolicy

import (
	"testing"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

func TestResolveListScope_StudentIgnoresRequest(t *testing.T) {
	student := Actor{ID: primitive.NewObjectID(), Role: models.RoleStudent}
	other := oid()

	requests := []RequestFilter{
		{},
		{StudentID: other},
		{StudentID: other, Status: models.StatusAccepted, UniversityID: oid(), CourseID: oid()},
		{AssignedCounselorID: oid()},
	}
	for _, req := range requests {
		scope := ResolveListScope(student, req)
		if !scope.CanList {
			t.Fatalf("student cannot list")
		}
		if len(scope.Filter) != 1 {
			t.Fatalf("student filter = %v, want only student_id", scope.Filter)
		}
		if v, _ := scope.Filter.Get("student_id"); v != student.ID {
			t.Errorf("student filter student_id = %v, want actor %s", v, student.ID.Hex())
		}
		if scope.ExcludeDrafts {
			t.Errorf("students must see their own drafts")
		}
	}
}

func TestResolveListScope_Counselor(t *testing.T) {
	counselor := Actor{ID: primitive.NewObjectID(), Role: models.RoleCounselor}
	student := oid()
	uni := oid()

	t.Run("defaults to assigned", func(t *testing.T) {
		scope := ResolveListScope(counselor, RequestFilter{})
		if v, ok := scope.Filter.Get("assigned_counselor_id"); !ok || v != counselor.ID {
			t.Errorf("filter = %v, want assigned_counselor_id = actor", scope.Filter)
		}
		if !scope.ExcludeDrafts {
			t.Error("counselor scope must exclude drafts")
		}
	})

	t.Run("named student", func(t *testing.T) {
		scope := ResolveListScope(counselor, RequestFilter{StudentID: student, UniversityID: uni, Status: models.StatusSubmitted})
		if v, _ := scope.Filter.Get("student_id"); v != *student {
			t.Errorf("student_id = %v, want %s", v, student.Hex())
		}
		if _, ok := scope.Filter.Get("assigned_counselor_id"); ok {
			t.Error("named student must replace the assigned default")
		}
		if v, _ := scope.Filter.Get("university_id"); v != *uni {
			t.Errorf("university_id = %v, want %s", v, uni.Hex())
		}
		if v, _ := scope.Filter.Get("status"); v != models.StatusSubmitted {
			t.Errorf("status = %v", v)
		}
		if !scope.ExcludeDrafts {
			t.Error("counselor scope must exclude drafts")
		}
	})
}

func TestResolveListScope_AdminPassesThrough(t *testing.T) {
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	scope := ResolveListScope(admin, RequestFilter{})
	if !scope.CanList || len(scope.Filter) != 0 || scope.ExcludeDrafts {
		t.Errorf("empty admin scope = %+v", scope)
	}

	course := oid()
	scope = ResolveListScope(admin, RequestFilter{Status: models.StatusDraft, CourseID: course})
	want := docstore.Eq("status", models.StatusDraft).And("course_id", *course)
	if len(scope.Filter) != len(want) {
		t.Fatalf("filter = %v, want %v", scope.Filter, want)
	}
	for i := range want {
		if scope.Filter[i] != want[i] {
			t.Errorf("predicate %d = %+v, want %+v", i, scope.Filter[i], want[i])
		}
	}
}

func TestResolveListScope_Denied(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
	}{
		{"unknown role", Actor{ID: primitive.NewObjectID(), Role: "visitor"}},
		{"no identity", Actor{Role: models.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ResolveListScope(tt.actor, RequestFilter{}).CanList {
				t.Error("expected CanList=false")
			}
		})
	}
}

func TestListScope_Keep(t *testing.T) {
	drafted := models.Application{Status: models.StatusDraft}
	submitted := models.Application{Status: models.StatusSubmitted}

	if !(ListScope{}).Keep(drafted) {
		t.Error("plain scope should keep drafts")
	}
	s := ListScope{ExcludeDrafts: true}
	if s.Keep(drafted) || !s.Keep(submitted) {
		t.Error("ExcludeDrafts should drop only drafts")
	}
}

func TestSingleRecordRules(t *testing.T) {
	studentID := primitive.NewObjectID()
	counselorID := primitive.NewObjectID()

	student := Actor{ID: studentID, Role: models.RoleStudent}
	otherStudent := Actor{ID: primitive.NewObjectID(), Role: models.RoleStudent}
	counselor := Actor{ID: counselorID, Role: models.RoleCounselor}
	otherCounselor := Actor{ID: primitive.NewObjectID(), Role: models.RoleCounselor}
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	app := func(status string, assigned bool) models.Application {
		a := models.Application{StudentID: studentID, Status: status}
		if assigned {
			a.AssignedCounselorID = &counselorID
		}
		return a
	}

	tests := []struct {
		name  string
		actor Actor
		app   models.Application
		to    string
		view  bool
		move  bool
	}{
		{"student submits own draft", student, app(models.StatusDraft, false), models.StatusSubmitted, true, true},
		{"student withdraws", student, app(models.StatusUnderReview, true), models.StatusWithdrawn, true, true},
		{"student cannot accept", student, app(models.StatusUnderReview, true), models.StatusAccepted, true, false},
		{"student cannot resubmit", student, app(models.StatusUnderReview, true), models.StatusSubmitted, true, false},
		{"other student", otherStudent, app(models.StatusDraft, false), models.StatusWithdrawn, false, false},
		{"counselor never sees draft", counselor, app(models.StatusDraft, true), models.StatusSubmitted, false, false},
		{"assigned counselor reviews", counselor, app(models.StatusSubmitted, true), models.StatusUnderReview, true, true},
		{"counselor cannot reopen draft", counselor, app(models.StatusSubmitted, true), models.StatusDraft, true, false},
		{"unassigned counselor views only", otherCounselor, app(models.StatusSubmitted, true), models.StatusUnderReview, true, false},
		{"admin any move", admin, app(models.StatusDraft, false), models.StatusAccepted, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(tt.actor, tt.app); got != tt.view {
				t.Errorf("CanView = %v, want %v", got, tt.view)
			}
			if got := CanTransition(tt.actor, tt.app, tt.to); got != tt.move {
				t.Errorf("CanTransition(%s) = %v, want %v", tt.to, got, tt.move)
			}
		})
	}
}

func TestCapabilityChecks(t *testing.T) {
	studentID := primitive.NewObjectID()
	student := Actor{ID: studentID, Role: models.RoleStudent}
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	counselor := Actor{ID: primitive.NewObjectID(), Role: models.RoleCounselor}

	if !CanCreate(student) || CanCreate(admin) || CanCreate(counselor) {
		t.Error("only students may create applications")
	}
	if !CanAssignCounselor(admin) || CanAssignCounselor(student) || CanAssignCounselor(counselor) {
		t.Error("only admins may assign counselors")
	}

	draft := models.Application{StudentID: studentID, Status: models.StatusDraft}
	submitted := models.Application{StudentID: studentID, Status: models.StatusSubmitted}
	if !CanEditDraft(student, draft) {
		t.Error("owner should edit own draft")
	}
	if CanEditDraft(student, submitted) || CanEditDraft(admin, draft) {
		t.Error("only the owner may edit, and only while draft")
	}
}
