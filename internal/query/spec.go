// Package query holds the feed's filter state and turns it into declarative,
// cursor-paginated fetch requests that any document store can execute.
package query

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// All is the filter value meaning "no constraint on this dimension".
const All = "all"

// Fields a Spec may constrain or order by.
const (
	FieldType         = "type"
	FieldSpecies      = "species"
	FieldNeighborhood = "neighborhood"
	FieldStatus       = "status"
	FieldCreatedAt    = "created_at"
)

// Constraint is an equality match on one field.
type Constraint struct {
	Field string
	Value string
}

// Spec is a store-agnostic fetch request: equality constraints joined by AND,
// newest-first ordering on creation time, a start-after cursor and a limit.
type Spec struct {
	Constraints []Constraint
	OrderBy     string
	Descending  bool
	After       Cursor
	Limit       int
}

// Where returns a copy of s with an extra equality constraint.
func (s Spec) Where(field, value string) Spec {
	out := s
	out.Constraints = append(append([]Constraint(nil), s.Constraints...), Constraint{Field: field, Value: value})
	return out
}

// Build makes the Spec for one page of pageSize records under filters. It asks
// for one extra record so the caller can tell whether another page exists.
func Build(filters Filters, pageSize int, after Cursor) Spec {
	return Spec{
		Constraints: filters.Constraints(),
		OrderBy:     FieldCreatedAt,
		Descending:  true,
		After:       after,
		Limit:       pageSize + 1,
	}
}

// Trim strips the probe record fetched by Build and reports whether it existed.
func Trim[T any](records []T, pageSize int) ([]T, bool) {
	if len(records) > pageSize {
		return records[:pageSize], true
	}
	return records, false
}

// Cursor identifies the last record seen. It is opaque to callers and only
// meaningful together with the filters that produced it.
type Cursor string

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// NewCursor encodes the sort position of a record.
func NewCursor(createdAt time.Time, id string) Cursor {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + "|" + id
	return Cursor(base64.RawURLEncoding.EncodeToString([]byte(raw)))
}

// Decode returns the creation time and id the cursor points at.
func (c Cursor) Decode() (time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	nanos, id, ok := strings.Cut(string(b), "|")
	if !ok || id == "" {
		return time.Time{}, "", ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return time.Unix(0, n).UTC(), id, nil
}
