package models

// Pagination describes a page of a list response. Pages is always
// ceil(Total/Limit).
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination normalises page/limit and derives the page count.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	pages := (total + limit - 1) / limit
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
