package repository

import (
	"math"
	"time"

	"pos-service/internal/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery describes a paginated, filtered list request
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Scope  model.Scope
	// Filters maps column names to exact-match values. Callers whitelist
	// the columns before building the query.
	Filters  map[string]string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Normalize applies paging defaults and bounds
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// keeps Offset from overflowing
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
}

// Offset returns the number of rows skipped before the current page
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination is returned alongside every list
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total matching rows
func NewPagination(q ListQuery, total int64) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}
}
