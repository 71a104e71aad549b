// Package docstore is a small document store: named collections of bson
// records, each collection persisted as one file that is read in full for
// every operation and replaced in full after every mutation.
//
// Concurrency model:
//   - Every collection has its own RWMutex.
//   - Reads (Find, FindByID, Paginate) hold the read lock.
//   - Every mutation goes through Update, which holds the write lock for the
//     whole read-modify-write cycle, so writers to one collection never
//     interleave and no update is lost.
//   - A collection file is replaced by writing a temp file, fsyncing it and
//     renaming it over the current one, so readers never see a torn file.
//
// Filtering is equality-only (see Filter). Callers needing ranges or
// negation post-filter the records they get back and page them with
// PaginateSlice.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Fields every record carries.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

var (
	// ErrNotFound is the normal "none" result for id lookups and updates.
	ErrNotFound = errors.New("docstore: record not found")
	// ErrCorrupt means a collection file failed its checksum or could not be decoded.
	ErrCorrupt = errors.New("docstore: collection file corrupt")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("docstore: store closed")
	// ErrInvalidName is returned for collection names outside [a-z0-9_].
	ErrInvalidName = errors.New("docstore: invalid collection name")
	// ErrInvalidRecord is returned when fields cannot be bson-encoded.
	ErrInvalidRecord = errors.New("docstore: record cannot be encoded")
)

// StorageError wraps an I/O or decoding failure of one collection. It is
// always fatal for the operation in flight; nothing was committed.
type StorageError struct {
	Collection string
	Op         string // "read" or "write"
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docstore: %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageFault reports whether err came from the persistence layer rather
// than from a caller's input.
func IsStorageFault(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Observer receives timing for every collection read and write. The metrics
// package implements it.
type Observer interface {
	ObserveRead(collection string, d time.Duration, err error)
	ObserveWrite(collection string, d time.Duration, records int, err error)
}

// Store owns all collections below one data directory. Create it with Open
// and release it with Close.
type Store struct {
	backend backend
	ids     *idgen.Generator
	now     func() time.Time
	log     *zap.Logger
	obs     Observer
	limits  Limits

	mu     sync.Mutex
	locks  map[string]*sync.RWMutex
	closed atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for created_at/updated_at.
// Readings are converted to UTC and truncated to bson precision.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = func() time.Time { return now().UTC().Truncate(time.Millisecond) }
		}
	}
}

// WithIDGenerator shares an id generator with other components.
func WithIDGenerator(g *idgen.Generator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.obs = o }
}

// WithPageLimits overrides the page size bounds used by Paginate.
func WithPageLimits(l Limits) Option {
	return func(s *Store) { s.limits = l }
}

// WithMemoryBackend keeps collections in memory instead of on disk. The
// encoding, checksums and locking are identical to the file backend.
func WithMemoryBackend() Option {
	return func(s *Store) { s.backend = newMemBackend() }
}

// Open opens (creating if needed) the store rooted at dir.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		ids:    idgen.New(),
		now:    defaultNow,
		log:    zap.NewNop(),
		limits: DefaultLimits,
		locks:  make(map[string]*sync.RWMutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		fb, err := newFileBackend(dir)
		if err != nil {
			return nil, err
		}
		s.backend = fb
	}
	s.log.Info("docstore opened", zap.String("dir", dir))
	return s, nil
}

// Close waits for in-flight writes and rejects further operations.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.locks {
		l.Lock()
		l.Unlock() //nolint:staticcheck // barrier: drain writers already holding the lock
	}
	return s.backend.close()
}

// Ping checks that the backing storage is reachable and writable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	return s.backend.ping()
}

// Limits returns the page size bounds used by Paginate.
func (s *Store) Limits() Limits { return s.limits }

// Now returns the store's clock reading, truncated to bson precision.
func (s *Store) Now() time.Time {
	return s.now()
}

func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) usable(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *Store) lockFor(name string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[name] = l
	}
	return l
}

func validName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case (r >= '0' && r <= '9') || r == '_':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Encode converts a bson-tagged struct (or map) into a record document.
func Encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return doc, nil
}

// Decode converts a record document into a bson-tagged struct.
func Decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return bson.Unmarshal(raw, out)
}

// DecodeAll decodes every record into a T.
func DecodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
