package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Page size bounds for list views.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// ListParams is the list view state carried in a query string:
// ?q=&sort=&dir=&page=&per_page=
type ListParams struct {
	Search  string
	Sort    string // one of the caller's sortable columns, or empty
	Desc    bool
	Page    int // 1-indexed
	PerPage int
}

// ParseListParams reads list parameters, dropping anything out of range.
// PRE: sortable lists the columns the caller can order by
// POST: Page >= 1, 1 <= PerPage <= MaxPerPage, Sort is empty or in sortable
func ParseListParams(q url.Values, sortable []string) ListParams {
	p := ListParams{
		Search:  strings.TrimSpace(q.Get("q")),
		Desc:    q.Get("dir") == "desc",
		Page:    atoiOr(q.Get("page"), 1),
		PerPage: atoiOr(q.Get("per_page"), DefaultPerPage),
	}
	if col := q.Get("sort"); slices.Contains(sortable, col) {
		p.Sort = col
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		p.PerPage = DefaultPerPage
	}
	return p
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// PageInfo describes one page of an in-memory list.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int // at least 1, even for an empty list
}

// NewPageInfo clamps page into range for total rows.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Bounds returns the half-open slice range [lo, hi) of the page.
func (p PageInfo) Bounds() (lo, hi int) {
	lo = min((p.Page-1)*p.PerPage, p.Total)
	return lo, min(lo+p.PerPage, p.Total)
}

// HasPrev reports whether a page precedes this one.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a page follows this one.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }
