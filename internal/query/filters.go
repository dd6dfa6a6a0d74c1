package query

import (
	"fmt"
	"sync"
)

// Dimension is one independently filterable attribute of the feed.
type Dimension string

const (
	DimType         Dimension = FieldType
	DimSpecies      Dimension = FieldSpecies
	DimNeighborhood Dimension = FieldNeighborhood
)

// Filters is the set of active selections; All (or empty) omits a dimension.
type Filters struct {
	Type         string `json:"type"`
	Species      string `json:"species"`
	Neighborhood string `json:"neighborhood"`
}

// AllFilters selects everything.
func AllFilters() Filters {
	return Filters{Type: All, Species: All, Neighborhood: All}
}

// Constraints lists the equality constraints of the active selections.
func (f Filters) Constraints() []Constraint {
	var cs []Constraint
	add := func(field, value string) {
		if value != "" && value != All {
			cs = append(cs, Constraint{Field: field, Value: value})
		}
	}
	add(FieldType, f.Type)
	add(FieldSpecies, f.Species)
	add(FieldNeighborhood, f.Neighborhood)
	return cs
}

// Ticket identifies one outstanding fetch issued from a FilterState.
type Ticket struct {
	id         uint64
	generation uint64

	Filters  Filters
	PageSize int
	Cursor   Cursor
}

// Spec returns the fetch request for this ticket.
func (t Ticket) Spec() Spec {
	return Build(t.Filters, t.PageSize, t.Cursor)
}

// FilterState holds one UI session's feed selections and pagination position.
// At most one fetch may be in flight: BuildRequest refuses while loading.
type FilterState struct {
	mu         sync.Mutex
	filters    Filters
	cursor     Cursor
	loading    bool
	hasMore    bool
	issued     uint64
	generation uint64
}

// NewFilterState creates a state with every dimension set to All.
func NewFilterState() *FilterState {
	return &FilterState{filters: AllFilters()}
}

// ResetFilters restores the initial state.
func (s *FilterState) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = AllFilters()
	s.cursor = ""
	s.loading = false
	s.hasMore = false
	s.generation++
}

// SetFilter changes one dimension and restarts pagination.
func (s *FilterState) SetFilter(dim Dimension, value string) error {
	if value == "" {
		value = All
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch dim {
	case DimType:
		s.filters.Type = value
	case DimSpecies:
		s.filters.Species = value
	case DimNeighborhood:
		s.filters.Neighborhood = value
	default:
		return fmt.Errorf("unknown filter dimension %q", dim)
	}
	s.cursor = ""
	s.hasMore = false
	s.generation++
	return nil
}

// Restart drops the cursor so the next request fetches the first page.
func (s *FilterState) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = ""
	s.hasMore = false
	s.generation++
}

// BuildRequest issues a ticket for the next page of pageSize records, marking
// the state as loading. It returns false, and changes nothing, while another
// request is outstanding.
func (s *FilterState) BuildRequest(pageSize int) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return Ticket{}, false
	}
	s.loading = true
	s.issued++
	return Ticket{
		id:         s.issued,
		generation: s.generation,
		Filters:    s.filters,
		PageSize:   pageSize,
		Cursor:     s.cursor,
	}, true
}

// Settle records the outcome of the request identified by t and clears the
// loading gate. A result for filters that changed since t was issued clears
// the gate but does not move the cursor. A ticket that is not the outstanding
// request is ignored.
func (s *FilterState) Settle(t Ticket, next Cursor, hasMore bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.id != s.issued || !s.loading {
		return
	}
	s.loading = false
	if err != nil || t.generation != s.generation {
		return
	}
	s.hasMore = hasMore
	if next != "" {
		s.cursor = next
	}
}

// Snapshot is a read-only view of a FilterState.
type Snapshot struct {
	Filters Filters `json:"filters"`
	Cursor  Cursor  `json:"cursor,omitempty"`
	Loading bool    `json:"loading"`
	HasMore bool    `json:"hasMore"`
}

func (s *FilterState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Filters: s.filters, Cursor: s.cursor, Loading: s.loading, HasMore: s.hasMore}
}
