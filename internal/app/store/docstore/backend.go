package docstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/blake2b"
)

// fileExt is the extension of collection files inside the data directory.
const fileExt = ".bson"

// backend stores one opaque blob per collection. write must replace the blob
// atomically: a concurrent or later read sees either the old or the new blob.
type backend interface {
	read(name string) ([]byte, error) // nil, nil when the collection does not exist yet
	write(name string, data []byte) error
	ping() error
	close() error
}

// envelope is the on-disk layout of a collection file.
type envelope struct {
	Collection string    `bson:"collection"`
	Version    int64     `bson:"version"`
	WrittenAt  time.Time `bson:"written_at"`
	Checksum   []byte    `bson:"checksum"` // BLAKE2b-256 of Body
	Body       []byte    `bson:"body"`     // bson {records: [...]}
}

type body struct {
	Records []bson.M `bson:"records"`
}

// encodeCollection renders records deterministically (sorted keys) and wraps
// them in a checksummed envelope.
func encodeCollection(name string, version int64, at time.Time, records []bson.M) ([]byte, error) {
	canon := make(bson.A, len(records))
	for i, r := range records {
		canon[i] = canonical(r)
	}
	raw, err := bson.Marshal(bson.D{{Key: "records", Value: canon}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	sum := blake2b.Sum256(raw)
	return bson.Marshal(envelope{
		Collection: name,
		Version:    version,
		WrittenAt:  at,
		Checksum:   sum[:],
		Body:       raw,
	})
}

// decodeCollection verifies and unpacks a collection file.
func decodeCollection(name string, data []byte) ([]bson.M, int64, error) {
	if len(data) == 0 {
		return nil, 0, nil
	}
	var env envelope
	if err := bson.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
	}
	if env.Collection != name {
		return nil, 0, fmt.Errorf("%w: file holds collection %q", ErrCorrupt, env.Collection)
	}
	sum := blake2b.Sum256(env.Body)
	if !bytes.Equal(sum[:], env.Checksum) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	var b body
	if err := bson.Unmarshal(env.Body, &b); err != nil {
		return nil, 0, fmt.Errorf("%w: body: %v", ErrCorrupt, err)
	}
	return b.Records, env.Version, nil
}

// canonical converts maps to key-sorted bson.D recursively so a collection
// always encodes to the same bytes.
func canonical(v any) any {
	switch x := v.(type) {
	case bson.M:
		return canonicalMap(x)
	case map[string]any:
		return canonicalMap(x)
	case bson.A:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = canonical(e)
		}
		return out
	case []any:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = canonical(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(x))
		for i, e := range x {
			out[i] = bson.E{Key: e.Key, Value: canonical(e.Value)}
		}
		return out
	default:
		return v
	}
}

func canonicalMap(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: canonical(m[k])})
	}
	return d
}

/*─────────────────────────────────────────────────────────────────────────────*
| File backend                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type fileBackend struct {
	dir string
}

func newFileBackend(dir string) (*fileBackend, error) {
	if dir == "" {
		return nil, errors.New("docstore: data directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create data directory: %w", err)
	}
	return &fileBackend{dir: dir}, nil
}

func (b *fileBackend) path(name string) string {
	return filepath.Join(b.dir, name+fileExt)
}

func (b *fileBackend) read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// write is copy-on-write: temp file, fsync, rename over the current file.
func (b *fileBackend) write(name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(b.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, b.path(name)); err != nil {
		return err
	}
	b.syncDir()
	return nil
}

// syncDir persists the rename. Not every platform supports fsync on a
// directory, so failures are ignored.
func (b *fileBackend) syncDir() {
	d, err := os.Open(b.dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func (b *fileBackend) ping() error {
	fi, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("docstore: %s is not a directory", b.dir)
	}
	probe, err := os.CreateTemp(b.dir, ".ping-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func (b *fileBackend) close() error { return nil }

/*─────────────────────────────────────────────────────────────────────────────*
| Memory backend                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type memBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBackend() *memBackend {
	return &memBackend{blobs: make(map[string][]byte)}
}

func (b *memBackend) read(name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[name]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(data), nil
}

func (b *memBackend) write(name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[name] = bytes.Clone(data)
	return nil
}

func (b *memBackend) ping() error  { return nil }
func (b *memBackend) close() error { return nil }
