package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage bounds page numbers so offsets stay far from overflow.
	MaxPage = 100_000
)

// Params is a normalized, 1-based offset page request.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps a raw page request.
//   - page < 1 → first page
//   - page > MaxPage → MaxPage
//   - size < 1 → def (or DefaultPageSize when def < 1)
//   - size > max → max (max < 1 disables the cap)
func Normalize(page, size, def, max int) Params {
	if def < 1 {
		def = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = def
	}
	if max > 0 && size > max {
		size = max
	}
	return Params{Page: page, PageSize: size}
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the number of rows requested for this page.
func (p Params) Limit() int {
	return p.PageSize
}

// HasMore reports whether rows remain after a page that returned n rows.
func (p Params) HasMore(n int, total int64) bool {
	return int64(p.Offset()+n) < total
}
