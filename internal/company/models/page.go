package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest describes one page of a company search.
type PageRequest struct {
	Page       int
	Limit      int
	SearchTerm string
}

// Normalize replaces out-of-range values with defaults and caps the limit at maxLimit.
// A maxLimit below 1 disables the cap.
func (r *PageRequest) Normalize(maxLimit int) {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
}

// Offset is the number of matching records that precede the requested page.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Page is a page of companies with the metadata needed to walk the rest.
type Page struct {
	Data     []Company `json:"data"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	LastPage int       `json:"lastPage"`
}

// NewPage builds a Page. LastPage is ceil(total/limit) and 0 when nothing matched.
func NewPage(data []Company, total int64, req PageRequest) Page {
	if data == nil {
		data = []Company{}
	}
	lastPage := 0
	if req.Limit > 0 {
		lastPage = int(total / int64(req.Limit))
		if total%int64(req.Limit) != 0 {
			lastPage++
		}
	}
	return Page{
		Data:     data,
		Total:    total,
		Page:     req.Page,
		LastPage: lastPage,
	}
}
