// internal/app/store/universities/universitystore.go
package universitystore

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

// Collection is the docstore collection holding universities.
const Collection = "universities"

var (
	// ErrDuplicateCode is returned when another university already uses the code.
	ErrDuplicateCode = errors.New("a university with this code already exists")
	errNameRequired  = errors.New("university name is required")
	errCodeRequired  = errors.New("university code is required")
)

type Store struct {
	ds *docstore.Store
}

func New(ds *docstore.Store) *Store {
	return &Store{ds: ds}
}

// Create inserts a new, active university. Codes are unique.
func (s *Store) Create(ctx context.Context, u models.University) (models.University, error) {
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Code = normalize.Code(u.Code)
	u.Location = normalize.Name(u.Location)
	u.Website = normalize.QueryParam(u.Website)
	u.IsActive = true
	if u.Name == "" {
		return models.University{}, errNameRequired
	}
	if u.Code == "" {
		return models.University{}, errCodeRequired
	}

	fields, err := docstore.Encode(u)
	if err != nil {
		return models.University{}, err
	}

	var out models.University
	err = s.ds.Update(ctx, Collection, func(tx *docstore.Tx) error {
		if len(tx.Find(docstore.Eq("code", u.Code))) > 0 {
			return ErrDuplicateCode
		}
		doc, err := tx.Create(fields)
		if err != nil {
			return err
		}
		return docstore.Decode(doc, &out)
	})
	if err != nil {
		return models.University{}, err
	}
	return out, nil
}

// GetByID loads a university. Returns docstore.ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.University, error) {
	doc, err := s.ds.FindByID(ctx, Collection, id)
	if err != nil {
		return models.University{}, err
	}
	var u models.University
	if err := docstore.Decode(doc, &u); err != nil {
		return models.University{}, err
	}
	return u, nil
}

// GetByCode looks a university up by its (case-insensitive) code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.University, error) {
	unis, err := s.Find(ctx, docstore.Eq("code", normalize.Code(code)))
	if err != nil {
		return models.University{}, err
	}
	if len(unis) == 0 {
		return models.University{}, docstore.ErrNotFound
	}
	return unis[0], nil
}

// Find returns universities matching f in insertion order.
func (s *Store) Find(ctx context.Context, f docstore.Filter) ([]models.University, error) {
	docs, err := s.ds.Find(ctx, Collection, f)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.University](docs)
}

// ListActive returns active universities ordered by folded name.
func (s *Store) ListActive(ctx context.Context, req docstore.PageRequest) (docstore.Page[models.University], error) {
	unis, err := s.Find(ctx, docstore.Eq("is_active", true))
	if err != nil {
		return docstore.Page[models.University]{}, err
	}
	if req.Sort.Field == "" {
		req.Sort = docstore.Sort{Field: "name_ci"}
	}
	return docstore.PaginateSlice(unis, req, s.ds.Limits(), field), nil
}

// ByID returns every university keyed by id, for resolving references in bulk.
func (s *Store) ByID(ctx context.Context) (map[primitive.ObjectID]models.University, error) {
	unis, err := s.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.University, len(unis))
	for _, u := range unis {
		out[u.ID] = u
	}
	return out, nil
}

// SetActive enables or disables a university.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.ds.UpdateByID(ctx, Collection, id, bson.M{"is_active": active})
	return err
}

func field(u models.University, name string) any {
	switch name {
	case "name", "name_ci":
		return u.NameCI
	case "code":
		return u.Code
	case "location":
		return u.Location
	case "created_at":
		return u.CreatedAt
	}
	return nil
}
