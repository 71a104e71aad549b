package docstore

import (
	"context"
	"maps"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// snapshot loads collection under its read lock.
func (s *Store) snapshot(ctx context.Context, collection string) ([]bson.M, error) {
	if !validName(collection) {
		return nil, ErrInvalidName
	}
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	l := s.lockFor(collection)
	l.RLock()
	defer l.RUnlock()

	records, _, err := s.load(collection)
	return records, err
}

// Create stores fields as a new record and returns it with _id, created_at
// and updated_at filled in.
func (s *Store) Create(ctx context.Context, collection string, fields bson.M) (bson.M, error) {
	var out bson.M
	err := s.Update(ctx, collection, func(tx *Tx) error {
		doc, err := tx.Create(fields)
		out = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the record with id, or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, collection string, id primitive.ObjectID) (bson.M, error) {
	records, err := s.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if rid, ok := r[FieldID].(primitive.ObjectID); ok && rid == id {
			return maps.Clone(r), nil
		}
	}
	return nil, ErrNotFound
}

// Find returns every record matching f in insertion order. An empty result
// is a non-nil empty slice.
func (s *Store) Find(ctx context.Context, collection string, f Filter) ([]bson.M, error) {
	records, err := s.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]bson.M, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count returns the number of records matching f.
func (s *Store) Count(ctx context.Context, collection string, f Filter) (int, error) {
	records, err := s.Find(ctx, collection, f)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// UpdateByID shallow-merges patch into the record with id. See Tx.UpdateByID.
func (s *Store) UpdateByID(ctx context.Context, collection string, id primitive.ObjectID, patch bson.M) (bson.M, error) {
	var out bson.M
	err := s.Update(ctx, collection, func(tx *Tx) error {
		doc, err := tx.UpdateByID(id, patch)
		out = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes the record with id and returns it.
func (s *Store) DeleteByID(ctx context.Context, collection string, id primitive.ObjectID) (bson.M, error) {
	var out bson.M
	err := s.Update(ctx, collection, func(tx *Tx) error {
		doc, err := tx.DeleteByID(id)
		out = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Paginate filters, sorts and slices a collection in one read.
func (s *Store) Paginate(ctx context.Context, collection string, f Filter, req PageRequest) (Page[bson.M], error) {
	records, err := s.Find(ctx, collection, f)
	if err != nil {
		return Page[bson.M]{}, err
	}
	return PaginateSlice(records, req, s.limits, RecordField), nil
}

// RecordField is the PaginateSlice key function for raw records.
func RecordField(r bson.M, name string) any {
	return r[name]
}
