package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name   string
		page   int
		limit  int
		want   Page
		offset int
	}{
		{name: "defaults", page: 0, limit: 0, want: Page{Page: 1, Limit: 20}, offset: 0},
		{name: "negative", page: -3, limit: -1, want: Page{Page: 1, Limit: 20}, offset: 0},
		{name: "limit clamped", page: 2, limit: 500, want: Page{Page: 2, Limit: 100}, offset: 100},
		{name: "in range", page: 3, limit: 10, want: Page{Page: 3, Limit: 10}, offset: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.limit)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestNewPageResult(t *testing.T) {
	res := NewPageResult[string](nil, NewPage(1, 20), 41)

	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.Equal(t, 41, res.Pagination.Total)

	empty := NewPageResult([]int{}, NewPage(1, 20), 0)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
}
