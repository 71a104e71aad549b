// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the docstore collection holding courses.
const Collection = "courses"

var (
	// ErrDuplicateCourse is returned when the university already offers a course with the same code.
	ErrDuplicateCourse  = errors.New("this university already has a course with this code")
	errNameRequired     = errors.New("course name is required")
	errUniversityNeeded = errors.New("course must have university_id")
)

type Store struct {
	ds *docstore.Store
}

func New(ds *docstore.Store) *Store {
	return &Store{ds: ds}
}

// Create inserts a new, active course. The caller is responsible for checking
// that the university exists.
func (s *Store) Create(ctx context.Context, c models.Course) (models.Course, error) {
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.Code = normalize.Code(c.Code)
	c.Level = normalize.Role(c.Level)
	c.IsActive = true
	if c.Name == "" {
		return models.Course{}, errNameRequired
	}
	if c.UniversityID.IsZero() {
		return models.Course{}, errUniversityNeeded
	}

	fields, err := docstore.Encode(c)
	if err != nil {
		return models.Course{}, err
	}

	var out models.Course
	err = s.ds.Update(ctx, Collection, func(tx *docstore.Tx) error {
		if c.Code != "" && len(tx.Find(docstore.Eq("university_id", c.UniversityID).And("code", c.Code))) > 0 {
			return ErrDuplicateCourse
		}
		doc, err := tx.Create(fields)
		if err != nil {
			return err
		}
		return docstore.Decode(doc, &out)
	})
	if err != nil {
		return models.Course{}, err
	}
	return out, nil
}

// GetByID loads a course. Returns docstore.ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	doc, err := s.ds.FindByID(ctx, Collection, id)
	if err != nil {
		return models.Course{}, err
	}
	var c models.Course
	if err := docstore.Decode(doc, &c); err != nil {
		return models.Course{}, err
	}
	return c, nil
}

// Find returns courses matching f in insertion order.
func (s *Store) Find(ctx context.Context, f docstore.Filter) ([]models.Course, error) {
	docs, err := s.ds.Find(ctx, Collection, f)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Course](docs)
}

// ListByUniversity returns the courses offered by a university.
func (s *Store) ListByUniversity(ctx context.Context, universityID primitive.ObjectID, activeOnly bool) ([]models.Course, error) {
	f := docstore.Eq("university_id", universityID)
	if activeOnly {
		f = f.And("is_active", true)
	}
	return s.Find(ctx, f)
}

// ByID returns every course keyed by id, for resolving references in bulk.
func (s *Store) ByID(ctx context.Context) (map[primitive.ObjectID]models.Course, error) {
	courses, err := s.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.Course, len(courses))
	for _, c := range courses {
		out[c.ID] = c
	}
	return out, nil
}

// SetActive enables or disables a course.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.ds.UpdateByID(ctx, Collection, id, bson.M{"is_active": active})
	return err
}
