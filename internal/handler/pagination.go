// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"strconv"
)

// Pagination holds page links for admin tables.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	Pages       []PaginationPage
	BaseURL     string
}

// PaginationPage is a single page link. Ellipsis entries have no URL.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// parsePage reads the "page" query parameter, defaulting to 1.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// normalizePage clamps page to [1, totalPages] and returns both.
func normalizePage(page int, totalItems int64, perPage int) (int, int) {
	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page, totalPages
}

// buildPagination creates page links showing up to five pages around the
// current one, plus the first and last page.
func buildPagination(currentPage int, totalItems int64, perPage int, baseURL string) Pagination {
	currentPage, totalPages := normalizePage(currentPage, totalItems, perPage)

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		BaseURL:     baseURL,
	}

	start, end := currentPage-2, currentPage+2
	if start < 1 {
		start, end = 1, 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, PaginationPage{Number: 1, URL: p.PageURL(1)})
		if start > 2 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, PaginationPage{Number: i, URL: p.PageURL(i), IsCurrent: i == currentPage})
	}
	if end < totalPages {
		if end < totalPages-1 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, PaginationPage{Number: totalPages, URL: p.PageURL(totalPages)})
	}

	return p
}

// Offset returns the row offset of the current page.
func (p Pagination) Offset() int64 {
	return int64((p.CurrentPage - 1) * p.PerPage)
}

// PageURL returns the URL for a specific page number.
func (p Pagination) PageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// PrevURL returns the URL for the previous page.
func (p Pagination) PrevURL() string {
	return p.PageURL(p.CurrentPage - 1)
}

// NextURL returns the URL for the next page.
func (p Pagination) NextURL() string {
	return p.PageURL(p.CurrentPage + 1)
}

// ShouldShow reports whether there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}
