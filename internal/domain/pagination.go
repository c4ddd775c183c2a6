package domain

// Pagination defaults and bounds
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination describes one page of a filtered listing
type Pagination struct {
	Page  int   `json:"page"`  // Current page, 1-based
	Limit int   `json:"limit"` // Page size
	Total int64 `json:"total"` // Size of the filtered set
	Pages int   `json:"pages"` // Number of pages
}

// NormalizePage clamps page and limit to sane values
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the number of rows before page
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPagination computes the page count for total rows
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit)) // Ceiling division
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
