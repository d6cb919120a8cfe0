package pagination

const (
	// DefaultPerPage is the storefront page size when one is not provided.
	DefaultPerPage = 12
	// MaxPerPage caps how many rows any listing query can request.
	MaxPerPage = 60
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize enforces the configured defaults and maximums.
func (p Params) Normalize() Params {
	out := p
	if out.Page <= 0 {
		out.Page = 1
	}
	if out.PerPage <= 0 {
		out.PerPage = DefaultPerPage
	}
	if out.PerPage > MaxPerPage {
		out.PerPage = MaxPerPage
	}
	return out
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return p.Normalize().PerPage
}

// Meta describes one page of results for response envelopes.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewMeta computes page metadata from a normalized request and a total count.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.PerPage) - 1) / int64(n.PerPage))
	if pages < 1 {
		pages = 1
	}
	return Meta{
		Page:       n.Page,
		PerPage:    n.PerPage,
		Total:      total,
		TotalPages: pages,
	}
}
