// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"github.com/dalemusser/admitportal/internal/app/system/normalize"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the docstore collection holding users.
const Collection = "users"

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"counselor"|"admin"`)
	errNameRequired   = errors.New("full name is required")
	errEmailRequired  = errors.New("email is required")
)

type Store struct {
	ds *docstore.Store
}

func New(ds *docstore.Store) *Store {
	return &Store{ds: ds}
}

// Create inserts a new, active user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.IsActive = true

	switch u.Role {
	case models.RoleStudent, models.RoleCounselor, models.RoleAdmin:
		// ok
	default:
		return models.User{}, errBadRole
	}
	if u.FullName == "" {
		return models.User{}, errNameRequired
	}
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}

	fields, err := docstore.Encode(u)
	if err != nil {
		return models.User{}, err
	}

	var out models.User
	err = s.ds.Update(ctx, Collection, func(tx *docstore.Tx) error {
		if len(tx.Find(docstore.Eq("email", u.Email))) > 0 {
			return ErrDuplicateEmail
		}
		doc, err := tx.Create(fields)
		if err != nil {
			return err
		}
		return docstore.Decode(doc, &out)
	})
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

// GetByID loads a user by ObjectID. Returns docstore.ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	doc, err := s.ds.FindByID(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := docstore.Decode(doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.Find(ctx, docstore.Eq("email", normalize.Email(email)))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, docstore.ErrNotFound
	}
	return &users[0], nil
}

// GetActiveCounselor loads a user who is both active and a counselor.
func (s *Store) GetActiveCounselor(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive || u.Role != models.RoleCounselor {
		return nil, fmt.Errorf("user %s is not an active counselor: %w", id.Hex(), docstore.ErrNotFound)
	}
	return u, nil
}

// Find returns users matching f in insertion order.
func (s *Store) Find(ctx context.Context, f docstore.Filter) ([]models.User, error) {
	docs, err := s.ds.Find(ctx, Collection, f)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.User](docs)
}

// ListByRole returns all users holding role, active or not.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return s.Find(ctx, docstore.Eq("role", normalize.Role(role)))
}

// ByID returns every user keyed by id, for resolving references in bulk.
func (s *Store) ByID(ctx context.Context) (map[primitive.ObjectID]models.User, error) {
	users, err := s.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateProfile changes a user's name and email. Returns ErrDuplicateEmail if
// the email already belongs to another user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, email string) error {
	fullName = normalize.Name(fullName)
	email = normalize.Email(email)
	if fullName == "" {
		return errNameRequired
	}
	if email == "" {
		return errEmailRequired
	}
	return s.ds.Update(ctx, Collection, func(tx *docstore.Tx) error {
		for _, doc := range tx.Find(docstore.Eq("email", email)) {
			if doc[docstore.FieldID] != id {
				return ErrDuplicateEmail
			}
		}
		_, err := tx.UpdateByID(id, bson.M{
			"full_name":    fullName,
			"full_name_ci": text.Fold(fullName),
			"email":        email,
		})
		return err
	})
}

// SetActive enables or disables a user. Users are never physically deleted.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.ds.UpdateByID(ctx, Collection, id, bson.M{"is_active": active})
	return err
}
