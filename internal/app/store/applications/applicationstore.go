// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the docstore collection holding applications.
const Collection = "applications"

var (
	// ErrHistoryRewrite is returned by Save when the new status history does
	// not start with the stored one.
	ErrHistoryRewrite = errors.New("status history is append-only")
	// ErrSubmittedAtChanged is returned by Save when submitted_at was already
	// set and the new value differs.
	ErrSubmittedAtChanged = errors.New("submitted_at cannot change once set")
	// ErrUnknownStatus is returned when a status outside the enumeration would be persisted.
	ErrUnknownStatus = errors.New("unknown application status")
)

type Store struct {
	ds *docstore.Store
}

func New(ds *docstore.Store) *Store {
	return &Store{ds: ds}
}

// GetByID loads an application. Returns docstore.ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	doc, err := s.ds.FindByID(ctx, Collection, id)
	if err != nil {
		return models.Application{}, err
	}
	return decode(doc)
}

// Find returns applications matching f in insertion order.
func (s *Store) Find(ctx context.Context, f docstore.Filter) ([]models.Application, error) {
	docs, err := s.ds.Find(ctx, Collection, f)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Application](docs)
}

// Count returns the number of applications matching f.
func (s *Store) Count(ctx context.Context, f docstore.Filter) (int, error) {
	return s.ds.Count(ctx, Collection, f)
}

// Update runs fn as one read-modify-write cycle on the applications
// collection. Nothing is written unless fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return s.ds.Update(ctx, Collection, func(dtx *docstore.Tx) error {
		return fn(&Tx{tx: dtx})
	})
}

// Tx is the typed view of a docstore transaction on applications.
type Tx struct {
	tx *docstore.Tx
}

// Now is the timestamp the store stamps on records written in this Tx.
func (t *Tx) Now() time.Time { return t.tx.Now() }

// Get loads one application inside the transaction.
func (t *Tx) Get(id primitive.ObjectID) (models.Application, error) {
	doc, err := t.tx.FindByID(id)
	if err != nil {
		return models.Application{}, err
	}
	return decode(doc)
}

// Find returns applications matching f inside the transaction.
func (t *Tx) Find(f docstore.Filter) ([]models.Application, error) {
	return docstore.DecodeAll[models.Application](t.tx.Find(f))
}

// Insert stores a new application and returns it with id and timestamps set.
func (t *Tx) Insert(app models.Application) (models.Application, error) {
	if !models.IsValidStatus(app.Status) {
		return models.Application{}, ErrUnknownStatus
	}
	app.ID = primitive.NilObjectID
	fields, err := docstore.Encode(app)
	if err != nil {
		return models.Application{}, err
	}
	doc, err := t.tx.Create(fields)
	if err != nil {
		return models.Application{}, err
	}
	return decode(doc)
}

// Save writes every mutable field of app back to its record. The stored
// history must be a prefix of app.StatusHistory and a stored submitted_at
// must be unchanged.
func (t *Tx) Save(app models.Application) (models.Application, error) {
	if !models.IsValidStatus(app.Status) {
		return models.Application{}, ErrUnknownStatus
	}
	cur, err := t.Get(app.ID)
	if err != nil {
		return models.Application{}, err
	}
	if !extendsHistory(cur.StatusHistory, app.StatusHistory) {
		return models.Application{}, ErrHistoryRewrite
	}
	if cur.SubmittedAt != nil && (app.SubmittedAt == nil || !cur.SubmittedAt.Equal(*app.SubmittedAt)) {
		return models.Application{}, ErrSubmittedAtChanged
	}

	patch, err := docstore.Encode(app)
	if err != nil {
		return models.Application{}, err
	}
	// Optional fields dropped by omitempty must still be cleared.
	for _, k := range []string{"assigned_counselor_id", "personal_statement", "additional_info", "documents"} {
		if _, ok := patch[k]; !ok {
			patch[k] = nil
		}
	}
	doc, err := t.tx.UpdateByID(app.ID, patch)
	if err != nil {
		return models.Application{}, err
	}
	return decode(doc)
}

// SetFields patches individual fields without touching status or history.
func (t *Tx) SetFields(id primitive.ObjectID, fields bson.M) (models.Application, error) {
	for _, k := range []string{"status", "status_history", "submitted_at", "student_id", "university_id", "course_id"} {
		delete(fields, k)
	}
	doc, err := t.tx.UpdateByID(id, fields)
	if err != nil {
		return models.Application{}, err
	}
	return decode(doc)
}

func decode(doc bson.M) (models.Application, error) {
	var app models.Application
	if err := docstore.Decode(doc, &app); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func extendsHistory(prev, next []models.StatusEntry) bool {
	if len(next) < len(prev) {
		return false
	}
	for i := range prev {
		a, b := prev[i], next[i]
		if a.Status != b.Status || a.UpdatedBy != b.UpdatedBy || a.Notes != b.Notes || !a.Timestamp.Equal(b.Timestamp) {
			return false
		}
	}
	return true
}

// Field is the docstore.PaginateSlice key function for applications.
func Field(app models.Application, name string) any {
	switch name {
	case "status":
		return app.Status
	case "created_at":
		return app.CreatedAt
	case "updated_at":
		return app.UpdatedAt
	case "submitted_at":
		if app.SubmittedAt == nil {
			return nil
		}
		return *app.SubmittedAt
	case "student_id":
		return app.StudentID
	case "university_id":
		return app.UniversityID
	case "course_id":
		return app.CourseID
	case "_id":
		return app.ID
	}
	return nil
}
