package domain

// Page sizes accepted by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects one page of an ordered listing. Page counts from 1.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds params from optional query values. Missing or
// non-positive values fall back to page 1 and DefaultPageSize; Limit is
// clamped to MaxPageSize.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageSize)
	}
	return p
}

// Offset is the number of rows before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Next is the following page at the same size.
func (p PaginationParams) Next() PaginationParams {
	return PaginationParams{Page: p.Page + 1, Limit: p.Limit}
}
