package ports

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a page. Page is 0-based.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// NewPage assembles a Page from the rows of a normalized request.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size, TotalPages: pages}
}
