package storage

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// ListQuery carries the common list parameters: page/per_page pagination and
// an optional case-insensitive substring search.
type ListQuery struct {
	Search  string
	Page    int
	PerPage int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.PerPage
}

func (q ListQuery) like() string {
	return "%" + q.Search + "%"
}

// Paginated is one page of results plus the total count across all pages.
type Paginated[T any] struct {
	Items   []T
	Total   int64
	Page    int
	PerPage int
}

// TotalPages derives the page count from Total and PerPage.
func (p Paginated[T]) TotalPages() int64 {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + int64(p.PerPage) - 1) / int64(p.PerPage)
}
