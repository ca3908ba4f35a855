package catalog

// DefaultPageSize is the page size used when the caller does not ask for one.
const DefaultPageSize = 10

// PageParams selects a listing window. The zero value addresses the first
// page with the default size.
type PageParams struct {
	Page int64
	Size int64
}

// Normalize applies the listing defaults: a negative page collapses to 0
// and a non-positive size falls back to DefaultPageSize. Out-of-range
// values are never rejected. Page 0 and page 1 both address the first
// window, so callers may count from either.
func (p *PageParams) Normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
}

// Skip returns how many documents the window starts after. Callers must
// Normalize first.
func (p PageParams) Skip() int64 {
	if p.Page > 1 {
		return (p.Page - 1) * p.Size
	}
	return 0
}

// PageResult is the envelope returned by the findAll listings. TotalItems
// counts every document matching the filter, independent of the window.
type PageResult[T any] struct {
	Items       []T
	CurrentPage int64
	TotalItems  int64
	TotalPages  int64
}

func newPageResult[T any](items []T, p PageParams, total int64) *PageResult[T] {
	return &PageResult[T]{
		Items:       items,
		CurrentPage: p.Page,
		TotalItems:  total,
		TotalPages:  (total + p.Size - 1) / p.Size,
	}
}
