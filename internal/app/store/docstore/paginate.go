package docstore

import (
	"bytes"
	"cmp"
	"math"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Page size defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Limits bounds the page size a caller may request.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are the limits used when none are configured.
var DefaultLimits = Limits{Default: DefaultLimit, Max: MaxLimit}

// Sort orders records by a single field. An empty Field keeps insertion order.
type Sort struct {
	Field string
	Desc  bool
}

// PageRequest selects one page of a sorted result.
type PageRequest struct {
	Page  int
	Limit int
	Sort  Sort
}

// Pagination describes where a Page sits in the full result.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is one slice of a sorted result plus its position.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Normalize clamps page to >= 1 and limit to [1, l.Max], substituting
// l.Default for a missing limit. Page is also capped so Page*Limit fits in an int.
func (l Limits) Normalize(req PageRequest) PageRequest {
	def, max := l.Default, l.Max
	if max < 1 {
		max = MaxLimit
	}
	if def < 1 || def > max {
		def = min(DefaultLimit, max)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = def
	}
	if req.Limit > max {
		req.Limit = max
	}
	if req.Page > math.MaxInt/req.Limit {
		req.Page = math.MaxInt / req.Limit
	}
	return req
}

// PaginateSlice stable-sorts items by req.Sort and returns the requested page.
// field extracts the sort key of an item. items is not modified.
func PaginateSlice[T any](items []T, req PageRequest, limits Limits, field func(item T, name string) any) Page[T] {
	req = limits.Normalize(req)

	sorted := slices.Clone(items)
	if req.Sort.Field != "" && field != nil {
		slices.SortStableFunc(sorted, func(a, b T) int {
			c := compareValues(field(a, req.Sort.Field), field(b, req.Sort.Field))
			if req.Sort.Desc {
				return -c
			}
			return c
		})
	}

	total := len(sorted)
	start := (req.Page - 1) * req.Limit
	end := req.Page * req.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, sorted[start:end])

	return Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: (total + req.Limit - 1) / req.Limit,
			HasNext:    req.Page*req.Limit < total,
			HasPrev:    req.Page > 1,
		},
	}
}

// typeRank orders values of different kinds: missing < numbers < strings <
// ids < booleans < dates < anything else.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int64, float64:
		return 1
	case string:
		return 2
	case primitive.ObjectID:
		return 3
	case bool:
		return 4
	case primitive.DateTime:
		return 5
	default:
		return 6
	}
}

func compareValues(a, b any) int {
	a, b = scalar(a), scalar(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case nil:
		return 0
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y)
		case float64:
			return cmp.Compare(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, float64(y))
		case float64:
			return cmp.Compare(x, y)
		}
	case string:
		return strings.Compare(x, b.(string))
	case primitive.ObjectID:
		y := b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:])
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case primitive.DateTime:
		return cmp.Compare(int64(x), int64(b.(primitive.DateTime)))
	}
	return 0
}
