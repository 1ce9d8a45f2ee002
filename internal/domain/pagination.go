package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values into a usable page request.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type Pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
	TotalItems      int  `json:"total_items"`
}

func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Pagination{
		Page:            p.Number,
		Limit:           p.Size,
		TotalPages:      pages,
		HasNextPage:     p.Number < pages,
		HasPreviousPage: p.Number > 1,
		TotalItems:      total,
	}
}
