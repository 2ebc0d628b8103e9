package handlers

import (
	"net/http"
	"strconv"
)

const maxPageSize = 50

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams reads limit and offset. A missing or invalid limit
// means no limit; limits above maxPageSize are capped.
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		params.Limit = min(l, maxPageSize)
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	return params
}

// page returns the window of items selected by p.
func page[T any](items []T, p PaginationParams) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
