package helpers

import (
	"net/http"
	"net/url"
	"strconv"

	"eventplanner/internal/domain"
)

// Page and page_size bounds for list endpoints.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads ?page and ?page_size. Missing, malformed or non-positive
// values fall back to the defaults; page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     positiveInt(q, "page", DefaultPage),
		PageSize: min(positiveInt(q, "page_size", DefaultPageSize), MaxPageSize),
	}
}

func positiveInt(q url.Values, key string, fallback int) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// PaginationMeta describes where a page sits in the full result set.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginationMeta derives the page count from total. A zero pageSize has no pages.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	meta.HasNext = page < meta.TotalPages
	return meta
}

// PageResponse is the data payload of paginated list endpoints.
// swagger:model PageResponse
type PageResponse struct {
	Items      any            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewPageResponse pairs one page of items with its position in the full set.
func NewPageResponse(items any, params domain.PaginationParams, total int) PageResponse {
	return PageResponse{Items: items, Pagination: NewPaginationMeta(params.Page, params.PageSize, total)}
}
