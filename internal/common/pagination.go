package common

import (
	"net/http"
	"strconv"
)

const maxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills in the derived page count.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: int(total), TotalPages: pages}
}

// ParsePagination extracts page and per-page parameters from query values.
// per_page and limit are both accepted; values above 100 are clamped.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	for _, key := range []string{"per_page", "limit"} {
		if l, err := strconv.Atoi(q.Get(key)); err == nil && l > 0 {
			perPage = l
			break
		}
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// LimitOffset converts a page into SQL limit/offset values.
func LimitOffset(page, perPage int) (int32, int32) {
	if page < 1 {
		page = 1
	}
	return int32(perPage), int32((page - 1) * perPage)
}
