package helpers

import (
	"net/http/httptest"
	"testing"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", DefaultPage, DefaultPageSize},
		{"?page=3&page_size=5", 3, 5},
		{"?page=0&page_size=-1", DefaultPage, DefaultPageSize},
		{"?page=abc", DefaultPage, DefaultPageSize},
		{"?page_size=1000", DefaultPage, MaxPageSize},
		{"?page=2&page_size=100", 2, MaxPageSize},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/events"+tt.query, nil)
		p := ParsePagination(r)
		assert.Equal(t, tt.wantPage, p.Page, tt.query)
		assert.Equal(t, tt.wantPageSize, p.PageSize, tt.query)
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 1, PageSize: 20, Total: 41, TotalPages: 3, HasNext: true}, NewPaginationMeta(1, 20, 41))
	assert.False(t, NewPaginationMeta(3, 20, 41).HasNext)
	assert.False(t, NewPaginationMeta(1, 20, 0).HasNext)
	assert.Equal(t, 0, NewPaginationMeta(1, 0, 10).TotalPages)
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]string{"a"}, domain.PaginationParams{Page: 2, PageSize: 1}, 3)
	assert.Equal(t, []string{"a"}, resp.Items)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 2, resp.Pagination.Page)
}
