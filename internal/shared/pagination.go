package shared

import "math"

const (
	// DefaultPageSize is the page size used by every listing in the portal.
	DefaultPageSize = 20
	// MaxPageSize bounds caller supplied page sizes.
	MaxPageSize = 100
	// MaxPage bounds the page number so offsets stay well inside int range.
	MaxPage = 10000
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	page, perPage = NormalizePage(page, perPage)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// NormalizePage clamps page to [1, MaxPage] and perPage to
// [1, MaxPageSize], falling back to DefaultPageSize.
func NormalizePage(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	perPage = min(perPage, MaxPageSize)
	if page <= 0 {
		page = 1
	}
	page = min(page, MaxPage)
	return page, perPage
}

// Offset returns the row offset for a 1-based page.
func Offset(page, perPage int) int {
	page, perPage = NormalizePage(page, perPage)
	return (page - 1) * perPage
}
