package docstore

import (
	"bytes"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Predicate selects records whose Field equals Value. Equality is the only
// comparison the store supports.
type Predicate struct {
	Field string
	Value any
}

// Filter is a conjunction of predicates. The empty Filter matches every
// record.
type Filter []Predicate

// Eq builds a single-predicate Filter. Chain further predicates with And.
func Eq(field string, value any) Filter {
	return Filter{{Field: field, Value: value}}
}

// And returns f with one more predicate appended.
func (f Filter) And(field string, value any) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Predicate{Field: field, Value: value})
}

// Get returns the value required for field, if the filter constrains it.
func (f Filter) Get(field string) (any, bool) {
	for _, p := range f {
		if p.Field == field {
			return p.Value, true
		}
	}
	return nil, false
}

// Matches reports whether doc satisfies every predicate. A missing field
// equals nil.
func (f Filter) Matches(doc bson.M) bool {
	for _, p := range f {
		if !valuesEqual(doc[p.Field], p.Value) {
			return false
		}
	}
	return true
}

// String renders the filter for logs.
func (f Filter) String() string {
	if len(f) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(f))
	for _, p := range f {
		parts = append(parts, p.Field)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// scalar folds Go-side representations onto the types bson decoding produces
// so that predicate values written by callers compare equal to stored values.
func scalar(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return primitive.NewDateTimeFromTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return primitive.NewDateTimeFromTime(*x)
	case *primitive.ObjectID:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case primitive.Null:
		return nil
	}
	return v
}

func valuesEqual(a, b any) bool {
	a, b = scalar(a), scalar(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	// Cross-width numbers.
	if af, aok := a.(float64); aok {
		if bi, bok := b.(int64); bok {
			return af == float64(bi)
		}
	}
	if ai, aok := a.(int64); aok {
		if bf, bok := b.(float64); bok {
			return float64(ai) == bf
		}
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}

	// Composite values (arrays, embedded documents): compare canonical bson.
	ra, errA := bson.Marshal(bson.D{{Key: "v", Value: canonical(a)}})
	rb, errB := bson.Marshal(bson.D{{Key: "v", Value: canonical(b)}})
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
