package seed_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/seed"
	"github.com/dalemusser/admitportal/internal/app/store/audit"
	coursestore "github.com/dalemusser/admitportal/internal/app/store/courses"
	universitystore "github.com/dalemusser/admitportal/internal/app/store/universities"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/dalemusser/admitportal/internal/testutil"
	"go.uber.org/zap"
)

const catalogYAML = `
universities:
  - name: Northgate University
    code: ngu
    location: Leeds
    courses:
      - {name: Computer Science, code: CS100, level: Undergraduate}
      - {name: History, code: HI100}
  - name: Lakeside College
    code: LSC
    inactive: true
    courses:
      - {name: Nursing, code: NU100, inactive: true}
users:
  - {name: Dan Admin, email: Dan@Example.com, role: admin}
  - {name: Cleo Counselor, email: cleo@example.com, role: counselor}
`

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "universities: [", "parse seed catalog"},
		{"missing university code", "universities:\n  - name: X\n", "universities[0]: code is required"},
		{"bad website", "universities:\n  - {name: X, code: X, website: x.edu}\n", "universities[0]: website must be an http or https URL"},
		{"missing course code", "universities:\n  - {name: X, code: X, courses: [{name: Y}]}\n", "universities[0].courses[0]: code is required"},
		{"missing email", "users:\n  - {name: A, role: admin}\n", "users[0]: email is required"},
		{"bad email", "users:\n  - {name: A, email: a@@x, role: admin}\n", "users[0]: A valid email address is required"},
		{"unknown role", "users:\n  - {name: Eve, email: eve@example.com, role: superuser}\n", "users[0]: role must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Parse error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestApply_CreatesAndIsIdempotent(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	cat, err := seed.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	events := audit.New(ds)
	s := seed.New(ds, auditlog.New(events, zap.NewNop(), auditlog.Config{Admin: auditlog.ModeDB}), zap.NewNop())

	res, err := s.Apply(ctx, cat, path)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != (seed.Result{Universities: 2, Courses: 3, Users: 2}) {
		t.Errorf("first run = %+v", res)
	}

	res, err = s.Apply(ctx, cat, path)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res != (seed.Result{}) {
		t.Errorf("second run created %+v, want nothing", res)
	}

	ngu, err := universitystore.New(ds).GetByCode(ctx, "NGU")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if !ngu.IsActive || ngu.Location != "Leeds" {
		t.Errorf("NGU = %+v", ngu)
	}
	lsc, err := universitystore.New(ds).GetByCode(ctx, "lsc")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if lsc.IsActive {
		t.Error("LSC should be inactive")
	}

	courses, err := coursestore.New(ds).ListByUniversity(ctx, ngu.ID, true)
	if err != nil {
		t.Fatalf("ListByUniversity: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("NGU active courses = %d, want 2", len(courses))
	}

	admin, err := userstore.New(ds).GetByEmail(ctx, "dan@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if admin.Role != models.RoleAdmin || !admin.IsActive {
		t.Errorf("admin = %+v", admin)
	}

	n, err := events.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventCatalogSeeded})
	if err != nil {
		t.Fatalf("CountByFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("catalog_seeded events = %d, want 2", n)
	}
}

func TestApply_AddsMissingCourses(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, ds)
	uni := fx.CreateUniversity(ctx, "Northgate University", "NGU")
	fx.CreateCourse(ctx, uni.ID, "Computer Science", "CS100")

	cat, err := seed.Parse([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := seed.New(ds, nil, nil).Apply(ctx, cat, "inline")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Universities != 1 || res.Courses != 2 {
		t.Errorf("result = %+v, want LSC plus HI100 and NU100", res)
	}
}

func TestApply_BadRole(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Catalogs built in code skip Parse; Apply still refuses the role.
	cat := seed.Catalog{Users: []seed.User{{Name: "Eve", Email: "eve@example.com", Role: "superuser"}}}
	if _, err := seed.New(ds, nil, nil).Apply(ctx, cat, "inline"); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}
