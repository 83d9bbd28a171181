package page

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		want                 Info
	}{
		{"first page", 1, 8, 20, Info{Page: 1, PerPage: 8, Total: 20, TotalPages: 3}},
		{"clamped high", 9, 8, 20, Info{Page: 3, PerPage: 8, Total: 20, TotalPages: 3}},
		{"clamped low", 0, 8, 20, Info{Page: 1, PerPage: 8, Total: 20, TotalPages: 3}},
		{"empty", 2, 8, 0, Info{Page: 1, PerPage: 8, Total: 0, TotalPages: 1}},
		{"exact", 2, 8, 16, Info{Page: 2, PerPage: 8, Total: 16, TotalPages: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.page, tt.perPage, tt.total))
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, []int{1, 2, 3, 4}, Slice(items, New(1, 4, len(items))))
	assert.Equal(t, []int{9, 10}, Slice(items, New(3, 4, len(items))))
	assert.Empty(t, Slice([]int{}, New(1, 4, 0)))

	p := New(2, 4, len(items))
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.True(t, p.ShowPagination())
	assert.Equal(t, 4, p.Offset())
}

func TestParse(t *testing.T) {
	assert.Equal(t, 1, Parse(url.Values{}))
	assert.Equal(t, 1, Parse(url.Values{"page": {"-3"}}))
	assert.Equal(t, 1, Parse(url.Values{"page": {"abc"}}))
	assert.Equal(t, 4, Parse(url.Values{"page": {"4"}}))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("", "anything"))
	assert.True(t, Matches("  ", "anything"))
	assert.True(t, Matches("CONF", "Annual conference"))
	assert.True(t, Matches("hall", "x", "Main Hall"))
	assert.False(t, Matches("robotics", "Annual conference", ""))
}
