package workflow

import (
	"context"

	"github.com/dalemusser/admitportal/internal/app/policy/applicationpolicy"
	applicationstore "github.com/dalemusser/admitportal/internal/app/store/applications"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ApplicationView is an application with its references resolved for
// display. A reference whose record is missing is left nil.
type ApplicationView struct {
	models.Application
	Student    *models.UserSummary       `json:"student,omitempty"`
	University *models.UniversitySummary `json:"university,omitempty"`
	Course     *models.CourseSummary     `json:"course,omitempty"`
}

// ListResult is one page of application views.
type ListResult = docstore.Page[ApplicationView]

// Filter is the caller's requested narrowing of a list.
type Filter = applicationpolicy.RequestFilter

var sortable = map[string]bool{
	"":             true,
	"created_at":   true,
	"updated_at":   true,
	"submitted_at": true,
	"status":       true,
}

// List returns the page of applications actor may see that match req.
func (s *Service) List(ctx context.Context, actor Actor, req Filter, page docstore.PageRequest) (ListResult, error) {
	if !sortable[page.Sort.Field] {
		return ListResult{}, invalid("sort", "cannot sort by "+page.Sort.Field)
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		return ListResult{}, invalid("status", "unknown status filter")
	}

	scope := applicationpolicy.ResolveListScope(actor, req)
	if !scope.CanList {
		return ListResult{}, ErrForbidden
	}

	apps, err := s.apps.Find(ctx, scope.Filter)
	if err != nil {
		return ListResult{}, err
	}
	visible := apps[:0]
	for _, a := range apps {
		if scope.Keep(a) {
			visible = append(visible, a)
		}
	}

	p := docstore.PaginateSlice(visible, page, s.limits, applicationstore.Field)
	views, err := s.resolve(ctx, p.Data)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Data: views, Pagination: p.Pagination}, nil
}

// Get returns one application if actor may see it.
func (s *Service) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*ApplicationView, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("application", err)
	}
	if !applicationpolicy.CanView(actor, app) {
		return nil, ErrNotFound
	}
	views, err := s.resolve(ctx, []models.Application{app})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// resolve attaches reference summaries. The three reference collections are
// read concurrently; each read holds only its own collection's lock.
func (s *Service) resolve(ctx context.Context, apps []models.Application) ([]ApplicationView, error) {
	views := make([]ApplicationView, len(apps))
	if len(apps) == 0 {
		return views, nil
	}

	var (
		users   map[primitive.ObjectID]models.User
		unis    map[primitive.ObjectID]models.University
		courses map[primitive.ObjectID]models.Course
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.ByID(gctx)
		return err
	})
	g.Go(func() (err error) {
		unis, err = s.unis.ByID(gctx)
		return err
	})
	g.Go(func() (err error) {
		courses, err = s.courses.ByID(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, a := range apps {
		v := ApplicationView{Application: a}
		if u, ok := users[a.StudentID]; ok {
			sum := u.Summary()
			v.Student = &sum
		}
		if u, ok := unis[a.UniversityID]; ok {
			sum := u.Summary()
			v.University = &sum
		}
		if c, ok := courses[a.CourseID]; ok {
			sum := c.Summary()
			v.Course = &sum
		}
		views[i] = v
	}
	return views, nil
}

// NextStatuses lists the statuses actor could move application id to right
// now, given both the transition graph and the actor's role.
func (s *Service) NextStatuses(ctx context.Context, actor Actor, id primitive.ObjectID) ([]string, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("application", err)
	}
	if !applicationpolicy.CanView(actor, app) {
		return nil, ErrNotFound
	}
	out := make([]string, 0)
	for _, to := range s.graph.Next(app.Status) {
		if applicationpolicy.CanTransition(actor, app, to) {
			out = append(out, to)
		}
	}
	return out, nil
}
