// Package idgen issues record identifiers without any external sequence
// service.
//
// Identifiers are Mongo ObjectIDs: a 4-byte seconds timestamp, a 5-byte random
// process value and a 3-byte counter. Ids from one Generator are strictly
// increasing; ids from independent generators are unique with overwhelming
// probability. They are not secrets and must not be used as tokens.
package idgen

import (
	"bytes"
	"encoding/binary"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Generator hands out ObjectIDs. The zero value is ready to use and is safe
// for concurrent use.
type Generator struct {
	mu   sync.Mutex
	last primitive.ObjectID
}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// Next returns an id greater than every id previously returned by g.
func (g *Generator) Next() primitive.ObjectID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := primitive.NewObjectID()
	if bytes.Compare(id[:], g.last[:]) <= 0 {
		// Clock went backwards or the driver counter wrapped; bump past last.
		id = successor(g.last)
	}
	g.last = id
	return id
}

// successor returns the id that follows id in byte order, keeping the
// timestamp prefix and incrementing the 8 trailing bytes.
func successor(id primitive.ObjectID) primitive.ObjectID {
	next := id
	tail := binary.BigEndian.Uint64(next[4:]) + 1
	binary.BigEndian.PutUint64(next[4:], tail)
	if tail == 0 {
		ts := binary.BigEndian.Uint32(next[:4]) + 1
		binary.BigEndian.PutUint32(next[:4], ts)
	}
	return next
}

// ParseHex parses a 24-character hex id. Malformed input yields
// primitive.NilObjectID and false.
func ParseHex(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}
