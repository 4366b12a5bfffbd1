package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalizes page parameters the same way list queries do.
func NewPagination(page, pageSize, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

// StatusCounts aggregates requests by lifecycle bucket for the dashboard.
type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Scheduled  int `json:"scheduled"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}
