package shared

// Filter represents list query options
type Filter struct {
	Page     int
	PageSize int
	SortBy   string
	OrderDir string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderDir: "asc",
	}
}

// Normalize clamps page values into a usable range, falling back to DefaultFilter
func (f Filter) Normalize() Filter {
	def := DefaultFilter()
	if f.Page < 1 {
		f.Page = def.Page
	}
	if f.PageSize < 1 {
		f.PageSize = def.PageSize
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	if f.OrderDir != "desc" {
		f.OrderDir = def.OrderDir
	}
	return f
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
