package docstore

import (
	"context"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Tx is a read-modify-write session on one collection. It exists only for
// the duration of an Update callback, while the collection's write lock is
// held. Records returned by Tx are shallow copies; nested values must not be
// mutated in place.
type Tx struct {
	s       *Store
	records []bson.M
	dirty   bool
}

// Now is the timestamp stamped on records written by this Tx.
func (tx *Tx) Now() time.Time { return tx.s.now() }

// Find returns records matching f, in insertion order.
func (tx *Tx) Find(f Filter) []bson.M {
	out := make([]bson.M, 0)
	for _, r := range tx.records {
		if f.Matches(r) {
			out = append(out, maps.Clone(r))
		}
	}
	return out
}

// FindByID returns the record with id or ErrNotFound.
func (tx *Tx) FindByID(id primitive.ObjectID) (bson.M, error) {
	i := tx.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return maps.Clone(tx.records[i]), nil
}

// Create assigns _id, created_at and updated_at, appends the record and
// returns it as it will read back from storage.
func (tx *Tx) Create(fields bson.M) (bson.M, error) {
	doc := make(bson.M, len(fields)+3)
	for k, v := range fields {
		doc[k] = v
	}
	now := tx.s.now()
	doc[FieldID] = tx.s.ids.Next()
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now

	norm, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	tx.records = append(tx.records, norm)
	tx.dirty = true
	return maps.Clone(norm), nil
}

// UpdateByID shallow-merges patch into the record with id and refreshes
// updated_at. _id and created_at in patch are ignored.
func (tx *Tx) UpdateByID(id primitive.ObjectID, patch bson.M) (bson.M, error) {
	i := tx.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	doc := maps.Clone(tx.records[i])
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		doc[k] = v
	}
	doc[FieldUpdatedAt] = tx.s.now()

	norm, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	tx.records[i] = norm
	tx.dirty = true
	return maps.Clone(norm), nil
}

// DeleteByID physically removes the record with id and returns it.
func (tx *Tx) DeleteByID(id primitive.ObjectID) (bson.M, error) {
	i := tx.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	removed := tx.records[i]
	tx.records = append(tx.records[:i:i], tx.records[i+1:]...)
	tx.dirty = true
	return removed, nil
}

// Len is the number of records currently in the snapshot.
func (tx *Tx) Len() int { return len(tx.records) }

func (tx *Tx) indexOf(id primitive.ObjectID) int {
	for i, r := range tx.records {
		if rid, ok := r[FieldID].(primitive.ObjectID); ok && rid == id {
			return i
		}
	}
	return -1
}

// Update runs fn against a snapshot of collection while holding its write
// lock. If fn returns nil and changed anything, the whole collection is
// written back once; if fn returns an error nothing is written and the error
// is returned unchanged.
func (s *Store) Update(ctx context.Context, collection string, fn func(tx *Tx) error) error {
	if !validName(collection) {
		return ErrInvalidName
	}
	if err := s.usable(ctx); err != nil {
		return err
	}

	l := s.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	// Close may have won the race for the lock.
	if err := s.usable(ctx); err != nil {
		return err
	}

	records, version, err := s.load(collection)
	if err != nil {
		return err
	}
	tx := &Tx{s: s, records: records}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	return s.persist(collection, tx.records, version+1)
}

// load reads and verifies the whole collection. Callers hold its lock.
func (s *Store) load(collection string) ([]bson.M, int64, error) {
	start := time.Now()
	data, err := s.backend.read(collection)
	var (
		records []bson.M
		version int64
	)
	if err == nil {
		records, version, err = decodeCollection(collection, data)
	}
	if s.obs != nil {
		s.obs.ObserveRead(collection, time.Since(start), err)
	}
	if err != nil {
		s.log.Error("docstore read failed", zap.String("collection", collection), zap.Error(err))
		return nil, 0, &StorageError{Collection: collection, Op: "read", Err: err}
	}
	return records, version, nil
}

// persist replaces the collection file. Callers hold its write lock.
func (s *Store) persist(collection string, records []bson.M, version int64) error {
	start := time.Now()
	data, err := encodeCollection(collection, version, s.now(), records)
	if err == nil {
		err = s.backend.write(collection, data)
	}
	if s.obs != nil {
		s.obs.ObserveWrite(collection, time.Since(start), len(records), err)
	}
	if err != nil {
		s.log.Error("docstore write failed",
			zap.String("collection", collection),
			zap.Int64("version", version),
			zap.Error(err))
		return &StorageError{Collection: collection, Op: "write", Err: err}
	}
	s.log.Debug("docstore collection written",
		zap.String("collection", collection),
		zap.Int64("version", version),
		zap.Int("records", len(records)),
		zap.Int("bytes", len(data)))
	return nil
}
