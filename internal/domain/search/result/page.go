package result

import "github.com/kailas-cloud/knowhub/internal/domain/document"

// Pagination describes the position of a page in a ranked list.
// Total is the number of pages, not the number of items.
type Pagination struct {
	Current int
	Total   int
	HasNext bool
	HasPrev bool
}

// NewPagination computes page metadata for totalItems split into pages of limit.
func NewPagination(page, limit, totalItems int) Pagination {
	total := 0
	if limit > 0 {
		total = (totalItems + limit - 1) / limit
	}
	return Pagination{
		Current: page,
		Total:   total,
		HasNext: page < total,
		HasPrev: page > 1,
	}
}

// Page is one page of ranked results.
type Page struct {
	Items      []Result
	TotalItems int
	Pagination Pagination
}

// Similar is the outcome of a similar-document lookup.
type Similar struct {
	Reference document.Document
	Items     []Result
}

// Slice returns items[offset : offset+limit], clamped to the bounds of items.
func Slice[T any](items []T, offset, limit int) []T {
	if offset >= len(items) || limit <= 0 {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
