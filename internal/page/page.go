// Package page turns ordered, filtered query results into stable page
// windows for presentation layers. Pages are 1-based; page size is fixed
// per endpoint by the server, never by the caller.
package page

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// New wraps items that were already windowed by the storage layer
// (OFFSET/LIMIT style) together with the unwindowed total.
func New[T any](items []T, total, pageNum, pageSize int) Page[T] {
	if pageNum < 1 {
		pageNum = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Total:       total,
		Page:        pageNum,
		PageSize:    pageSize,
		HasNext:     pageNum*pageSize < total,
		HasPrevious: pageNum > 1,
	}
}

// Window slices a fully materialized ordered list into the requested
// page. Requesting a page beyond the last yields an empty item list with
// the correct total.
func Window[T any](all []T, pageNum, pageSize int) Page[T] {
	if pageNum < 1 {
		pageNum = 1
	}
	total := len(all)

	start := (pageNum - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]T, end-start)
	copy(items, all[start:end])

	return New(items, total, pageNum, pageSize)
}
