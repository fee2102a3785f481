package pagination

const (
	// DefaultPerPage is the standard page size when per_page is not provided.
	DefaultPerPage = 50
	// MaxPerPage caps how many rows any page query can request.
	MaxPerPage = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Meta describes the page returned alongside a result set.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// Normalize clamps page to >= 1 and per_page to (0, max], substituting def when unset.
// A max outside (0, MaxPerPage] falls back to MaxPerPage.
func Normalize(p Params, def, max int) Params {
	if max <= 0 || max > MaxPerPage {
		max = MaxPerPage
	}
	if def <= 0 || def > max {
		def = min(DefaultPerPage, max)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = def
	}
	if p.PerPage > max {
		p.PerPage = max
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// NewMeta computes page counts for total rows.
func NewMeta(p Params, total int64) Meta {
	pages := 0
	if p.PerPage > 0 && total > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return Meta{
		Total:   total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   pages,
	}
}
