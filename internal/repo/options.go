// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package repo implements the generic data-access layer: a typed CRUD
// repository with filtered, ordered, and paginated queries, plus the
// specialized repositories for each content entity.
package repo

// QueryOptions describes a filtered list query. Filters are equality
// matches on column values; OrderBy must name a column the repository's
// mapper allows, otherwise the default order applies.
type QueryOptions struct {
	Limit     int
	Offset    int
	OrderBy   string
	Ascending bool
	Filters   map[string]any
}

// PageOptions describes a page-based query.
type PageOptions struct {
	Page      int
	PerPage   int
	OrderBy   string
	Ascending bool
	Filters   map[string]any
}

// DefaultPerPage is used when PageOptions.PerPage is not positive.
const DefaultPerPage = 10

// MaxPerPage caps PageOptions.PerPage.
const MaxPerPage = 100

// PageResult is one page of results plus the navigation metadata the
// frontend needs to render a pager.
type PageResult[T any] struct {
	Data            []T   `json:"data"`
	TotalCount      int64 `json:"total_count"`
	CurrentPage     int   `json:"current_page"`
	TotalPages      int   `json:"total_pages"`
	PerPage         int   `json:"per_page"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// NewPageResult assembles a PageResult, deriving TotalPages and the
// navigation flags from the counts:
//
//	TotalPages      = ceil(TotalCount / PerPage)
//	HasNextPage     = CurrentPage < TotalPages
//	HasPreviousPage = CurrentPage > 1
func NewPageResult[T any](data []T, totalCount int64, page, perPage int) PageResult[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((totalCount + int64(perPage) - 1) / int64(perPage))
	}

	return PageResult[T]{
		Data:            data,
		TotalCount:      totalCount,
		CurrentPage:     page,
		TotalPages:      totalPages,
		PerPage:         perPage,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
