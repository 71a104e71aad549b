package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	coursestore "github.com/dalemusser/admitportal/internal/app/store/courses"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	universitystore "github.com/dalemusser/admitportal/internal/app/store/universities"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SetupTestStore opens an in-memory docstore that is closed when the test ends.
func SetupTestStore(t *testing.T, opts ...docstore.Option) *docstore.Store {
	t.Helper()
	opts = append([]docstore.Option{docstore.WithMemoryBackend(), docstore.WithLogger(zap.NewNop())}, opts...)
	ds, err := docstore.Open("", opts...)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

// SetupFileStore opens a file-backed docstore in a per-test temp directory.
func SetupFileStore(t *testing.T, opts ...docstore.Option) *docstore.Store {
	t.Helper()
	ds, err := docstore.Open(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

// TestContext returns a context bounded the way request handlers are.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data through the
// typed stores, so fixtures get the same normalization as real data.
type Fixtures struct {
	ds      *docstore.Store
	t       *testing.T
	users   *userstore.Store
	unis    *universitystore.Store
	courses *coursestore.Store
}

// NewFixtures creates a new Fixtures instance for the given test store.
func NewFixtures(t *testing.T, ds *docstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{
		ds:      ds,
		t:       t,
		users:   userstore.New(ds),
		unis:    universitystore.New(ds),
		courses: coursestore.New(ds),
	}
}

// Store returns the underlying docstore for direct access in tests.
func (f *Fixtures) Store() *docstore.Store {
	return f.ds
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	u, err := f.users.Create(ctx, models.User{FullName: fullName, Email: email, Role: role})
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateStudent creates a test student.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent)
}

// CreateCounselor creates a test counselor.
func (f *Fixtures) CreateCounselor(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCounselor)
}

// CreateAdmin creates a test admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateDisabledUser creates a test user and then disables it.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, role)
	if err := f.users.SetActive(ctx, u.ID, false); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.IsActive = false
	return u
}

// CreateUniversity creates an active test university.
func (f *Fixtures) CreateUniversity(ctx context.Context, name, code string) models.University {
	f.t.Helper()
	u, err := f.unis.Create(ctx, models.University{Name: name, Code: code, Location: "Test City"})
	if err != nil {
		f.t.Fatalf("failed to create test university: %v", err)
	}
	return u
}

// CreateCourse creates an active test course at the given university.
func (f *Fixtures) CreateCourse(ctx context.Context, universityID primitive.ObjectID, name, code string) models.Course {
	f.t.Helper()
	c, err := f.courses.Create(ctx, models.Course{UniversityID: universityID, Name: name, Code: code, Level: "undergraduate"})
	if err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return c
}

// DeactivateCourse marks a course inactive.
func (f *Fixtures) DeactivateCourse(ctx context.Context, id primitive.ObjectID) {
	f.t.Helper()
	if err := f.courses.SetActive(ctx, id, false); err != nil {
		f.t.Fatalf("failed to deactivate test course: %v", err)
	}
}

// DeactivateUniversity marks a university inactive.
func (f *Fixtures) DeactivateUniversity(ctx context.Context, id primitive.ObjectID) {
	f.t.Helper()
	if err := f.unis.SetActive(ctx, id, false); err != nil {
		f.t.Fatalf("failed to deactivate test university: %v", err)
	}
}

// Catalog is a small reference data set: two universities with two courses each.
type Catalog struct {
	Universities []models.University
	Courses      []models.Course // Courses[0..1] at Universities[0], Courses[2..3] at Universities[1]
}

// CreateCatalog creates the standard two-university test catalog.
func (f *Fixtures) CreateCatalog(ctx context.Context) Catalog {
	f.t.Helper()
	north := f.CreateUniversity(ctx, "Northgate University", "NGU")
	lake := f.CreateUniversity(ctx, "Lakeside College", "LSC")
	return Catalog{
		Universities: []models.University{north, lake},
		Courses: []models.Course{
			f.CreateCourse(ctx, north.ID, "Computer Science", "CS100"),
			f.CreateCourse(ctx, north.ID, "History", "HI100"),
			f.CreateCourse(ctx, lake.ID, "Nursing", "NU100"),
			f.CreateCourse(ctx, lake.ID, "Economics", "EC100"),
		},
	}
}
