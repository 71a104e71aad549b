// Package workflow moves applications through the admissions review
// process. Every operation runs as the given actor: visibility and mutation
// rights come from applicationpolicy, and every write to the applications
// collection happens inside a single store update so concurrent callers never
// lose history entries.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/admitportal/internal/app/policy/applicationpolicy"
	applicationstore "github.com/dalemusser/admitportal/internal/app/store/applications"
	coursestore "github.com/dalemusser/admitportal/internal/app/store/courses"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	universitystore "github.com/dalemusser/admitportal/internal/app/store/universities"
	userstore "github.com/dalemusser/admitportal/internal/app/store/users"
	"github.com/dalemusser/admitportal/internal/app/system/auditlog"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Actor is the authenticated caller.
type Actor = applicationpolicy.Actor

// Recorder receives workflow counters. metrics.Registry implements it.
type Recorder interface {
	ApplicationCreated()
	TransitionApplied(from, to string)
	TransitionRejected(reason string)
}

// Config selects workflow behavior.
type Config struct {
	// Transitions is ModeStrict (default) or ModePermissive.
	Transitions string
	// Limits bounds list page sizes. Zero means docstore.DefaultLimits.
	Limits docstore.Limits
}

// Service implements the application workflow.
type Service struct {
	apps    *applicationstore.Store
	users   *userstore.Store
	unis    *universitystore.Store
	courses *coursestore.Store

	graph  Graph
	limits docstore.Limits

	audit   *auditlog.Logger
	metrics Recorder
	log     *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithAuditLogger records workflow events through l.
func WithAuditLogger(l *auditlog.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithRecorder reports counters to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a Service over ds. It fails only on an unknown transition mode.
func New(ds *docstore.Store, cfg Config, opts ...Option) (*Service, error) {
	g, err := NewGraph(cfg.Transitions)
	if err != nil {
		return nil, err
	}
	limits := cfg.Limits
	if limits == (docstore.Limits{}) {
		limits = ds.Limits()
	}
	s := &Service{
		apps:    applicationstore.New(ds),
		users:   userstore.New(ds),
		unis:    universitystore.New(ds),
		courses: coursestore.New(ds),
		graph:   g,
		limits:  limits,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Graph returns the transition graph in effect.
func (s *Service) Graph() Graph { return s.graph }

// CreateInput is what a student supplies to open an application.
type CreateInput struct {
	UniversityID      primitive.ObjectID
	CourseID          primitive.ObjectID
	PersonalStatement string
	AdditionalInfo    string
	Documents         []models.Document
}

// Create opens a draft application for the acting student.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Application, error) {
	if !applicationpolicy.CanCreate(actor) {
		return nil, ErrForbidden
	}
	if in.UniversityID.IsZero() {
		return nil, invalid("university_id", "is required")
	}
	if in.CourseID.IsZero() {
		return nil, invalid("course_id", "is required")
	}

	uni, err := s.unis.GetByID(ctx, in.UniversityID)
	if err != nil {
		return nil, notFound("university", err)
	}
	if !uni.IsActive {
		return nil, invalid("university_id", "university is not accepting applications")
	}
	course, err := s.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, notFound("course", err)
	}
	if !course.IsActive {
		return nil, invalid("course_id", "course is not accepting applications")
	}
	if course.UniversityID != uni.ID {
		return nil, invalid("course_id", "course is not offered by this university")
	}

	var created models.Application
	err = s.apps.Update(ctx, func(tx *applicationstore.Tx) error {
		existing, err := tx.Find(docstore.Eq("student_id", actor.ID).And("course_id", in.CourseID))
		if err != nil {
			return err
		}
		for _, a := range existing {
			if models.BlocksDuplicate(a.Status) {
				return &ValidationError{Field: "course_id", Reason: "an open application for this course already exists", Err: ErrDuplicateApplication}
			}
		}

		now := tx.Now()
		created, err = tx.Insert(models.Application{
			StudentID:    actor.ID,
			UniversityID: uni.ID,
			CourseID:     course.ID,
			Status:       models.StatusDraft,
			StatusHistory: []models.StatusEntry{
				{Status: models.StatusDraft, UpdatedBy: actor.ID, Timestamp: now},
			},
			PersonalStatement: in.PersonalStatement,
			AdditionalInfo:    in.AdditionalInfo,
			Documents:         in.Documents,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("application created",
		zap.String("application_id", created.ID.Hex()),
		zap.String("student_id", actor.ID.Hex()),
		zap.String("course_id", course.ID.Hex()))
	s.audit.ApplicationCreated(ctx, actor.ID, created.ID, uni.ID, course.ID)
	if s.metrics != nil {
		s.metrics.ApplicationCreated()
	}
	return &created, nil
}

// Transition moves application id to newStatus and appends one history entry.
func (s *Service) Transition(ctx context.Context, actor Actor, id primitive.ObjectID, newStatus, notes string) (*models.Application, error) {
	to := normalize.Status(newStatus)
	if !models.IsValidStatus(to) {
		s.rejected("unknown_status")
		return nil, invalid("status", fmt.Sprintf("unknown status %q", newStatus))
	}

	var (
		from    string
		updated models.Application
		denied  string
	)
	err := s.apps.Update(ctx, func(tx *applicationstore.Tx) error {
		app, err := tx.Get(id)
		if err != nil {
			return notFound("application", err)
		}
		if !applicationpolicy.CanView(actor, app) {
			return ErrNotFound
		}
		from = app.Status
		if !applicationpolicy.CanTransition(actor, app, to) {
			denied = "role may not make this transition"
			return ErrForbidden
		}
		if !s.graph.Allowed(from, to) {
			denied = "no transition from " + from + " to " + to
			return &ValidationError{Field: "status", Reason: denied, Err: ErrInvalidTransition}
		}

		now := tx.Now()
		if n := len(app.StatusHistory); n > 0 && now.Before(app.StatusHistory[n-1].Timestamp) {
			now = app.StatusHistory[n-1].Timestamp
		}
		app.StatusHistory = append(app.StatusHistory, models.StatusEntry{
			Status:    to,
			UpdatedBy: actor.ID,
			Timestamp: now,
			Notes:     strings.TrimSpace(notes),
		})
		app.Status = to
		if to == models.StatusSubmitted && app.SubmittedAt == nil {
			app.SubmittedAt = &now
		}
		updated, err = tx.Save(app)
		return err
	})
	if err != nil {
		if denied != "" {
			s.audit.TransitionDenied(ctx, actor.ID, id, actor.Role, from, to, denied)
			if errors.Is(err, ErrForbidden) {
				s.rejected("forbidden")
			} else {
				s.rejected("invalid_transition")
			}
		}
		return nil, err
	}

	s.log.Info("application transitioned",
		zap.String("application_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("from", from),
		zap.String("to", to))
	s.audit.ApplicationTransitioned(ctx, actor.ID, id, actor.Role, from, to, len(updated.StatusHistory))
	if s.metrics != nil {
		s.metrics.TransitionApplied(from, to)
	}
	return &updated, nil
}

// AssignCounselor sets the counselor responsible for application id.
func (s *Service) AssignCounselor(ctx context.Context, actor Actor, id, counselorID primitive.ObjectID) (*models.Application, error) {
	if !applicationpolicy.CanAssignCounselor(actor) {
		return nil, ErrForbidden
	}
	if _, err := s.users.GetActiveCounselor(ctx, counselorID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, invalid("counselor_id", "no active counselor with this id")
		}
		return nil, err
	}

	var (
		previous *primitive.ObjectID
		updated  models.Application
	)
	err := s.apps.Update(ctx, func(tx *applicationstore.Tx) error {
		app, err := tx.Get(id)
		if err != nil {
			return notFound("application", err)
		}
		previous = app.AssignedCounselorID
		updated, err = tx.SetFields(id, bson.M{"assigned_counselor_id": counselorID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.CounselorAssigned(ctx, actor.ID, id, counselorID, previous)
	return &updated, nil
}

// PayloadInput carries draft edits. Nil fields are left unchanged.
type PayloadInput struct {
	PersonalStatement *string
	AdditionalInfo    *string
	Documents         *[]models.Document
}

func (p PayloadInput) fields() (bson.M, []string, error) {
	set := bson.M{}
	var names []string
	if p.PersonalStatement != nil {
		set["personal_statement"] = *p.PersonalStatement
		names = append(names, "personal_statement")
	}
	if p.AdditionalInfo != nil {
		set["additional_info"] = *p.AdditionalInfo
		names = append(names, "additional_info")
	}
	if p.Documents != nil {
		docs, err := encodeDocuments(*p.Documents)
		if err != nil {
			return nil, nil, err
		}
		set["documents"] = docs
		names = append(names, "documents")
	}
	return set, names, nil
}

// UpdateDraft edits the payload of the acting student's draft.
func (s *Service) UpdateDraft(ctx context.Context, actor Actor, id primitive.ObjectID, in PayloadInput) (*models.Application, error) {
	set, names, err := in.fields()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, invalid("payload", "nothing to update")
	}

	var updated models.Application
	err = s.apps.Update(ctx, func(tx *applicationstore.Tx) error {
		app, err := tx.Get(id)
		if err != nil {
			return notFound("application", err)
		}
		if !applicationpolicy.CanView(actor, app) {
			return ErrNotFound
		}
		if !applicationpolicy.CanEditDraft(actor, app) {
			if actor.Role == models.RoleStudent && app.StudentID == actor.ID {
				return invalid("status", "only draft applications can be edited")
			}
			return ErrForbidden
		}
		updated, err = tx.SetFields(id, set)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.DraftUpdated(ctx, actor.ID, id, strings.Join(names, ","))
	return &updated, nil
}

func encodeDocuments(docs []models.Document) (bson.A, error) {
	out := make(bson.A, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.URL) == "" {
			return nil, invalid("documents", fmt.Sprintf("document %d needs a name and url", i))
		}
		m, err := docstore.Encode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.TransitionRejected(reason)
	}
}
