package page

import (
	"net/url"
	"strconv"
	"strings"
)

// Info carries pagination metadata for rendering.
type Info struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// New computes pagination metadata. Page is clamped to [1, TotalPages] and
// TotalPages is at least 1.
func New(page, perPage, total int) Info {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return Info{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func (p Info) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Bounds returns the half-open index range of the current page.
func (p Info) Bounds() (start, end int) {
	start = p.Offset()
	if start > p.Total {
		start = p.Total
	}
	end = start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

func (p Info) HasPrev() bool { return p.Page > 1 }
func (p Info) HasNext() bool { return p.Page < p.TotalPages }

// ShowPagination is true when there is more than one page.
func (p Info) ShowPagination() bool {
	return p.Total > p.PerPage
}

// Slice returns the items of the current page of items.
func Slice[T any](items []T, p Info) []T {
	start, end := p.Bounds()
	return items[start:end]
}

// Parse reads the 1-indexed "page" query parameter, defaulting to 1.
func Parse(q url.Values) int {
	n, _ := strconv.Atoi(q.Get("page"))
	if n < 1 {
		return 1
	}
	return n
}

// Matches reports whether any of values contains query, ignoring case. An
// empty query matches everything.
func Matches(query string, values ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}
