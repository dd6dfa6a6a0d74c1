package alerts

import (
	"context"

	"pataalerta/internal/query"
)

// Feed pages through the active alerts for one UI session.
type Feed struct {
	repo     *Repository
	state    *query.FilterState
	pageSize int
}

func NewFeed(repo *Repository, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{repo: repo, state: query.NewFilterState(), pageSize: pageSize}
}

// State exposes the session's filter selections.
func (f *Feed) State() *query.FilterState {
	return f.state
}

// Next fetches the page after the session's cursor. ok is false, and nothing
// is fetched, while another fetch for this session is in flight.
func (f *Feed) Next(ctx context.Context) (page Page, ok bool) {
	t, ok := f.state.BuildRequest(f.pageSize)
	if !ok {
		return Page{}, false
	}
	page = f.repo.fetch(ctx, t.Spec(), t.PageSize)
	var err error
	if page.Failure != nil {
		err = page.Failure
	}
	f.state.Settle(t, page.Cursor, page.HasMore, err)
	return page, true
}

// First applies filters and fetches the first page under them.
func (f *Feed) First(ctx context.Context, filters query.Filters) (Page, bool) {
	for dim, v := range map[query.Dimension]string{
		query.DimType:         filters.Type,
		query.DimSpecies:      filters.Species,
		query.DimNeighborhood: filters.Neighborhood,
	} {
		_ = f.state.SetFilter(dim, v)
	}
	f.state.Restart()
	return f.Next(ctx)
}
