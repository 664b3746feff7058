package domain

import "time"

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"

	DefaultSortField = "createdAt"
	DefaultPageSize  = 10
)

// SearchCriteria is built per list request and never persisted.
type SearchCriteria struct {
	StartDate     *time.Time
	EndDate       *time.Time
	CategoryId    *CategoryId // nil or CategoryAll means no filter
	SearchText    string
	SortField     string
	SortDirection string
	PageNumber    int // 0-based
	PageSize      int
	// My restricts an inquiry list to the requester's own posts.
	My bool
}

func (c SearchCriteria) Offset() int {
	return c.PageNumber * c.PageSize
}
