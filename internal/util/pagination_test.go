package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		size     string
		wantPage int
		wantSize int
		errKeys  []string
	}{
		{name: "defaults", wantPage: 1, wantSize: 10},
		{name: "explicit", page: "3", size: "5", wantPage: 3, wantSize: 5},
		{name: "clamped size", page: "1", size: "1000", wantPage: 1, wantSize: MaxPageSize},
		{name: "non integer page", page: "abc", wantPage: 1, wantSize: 10, errKeys: []string{"page"}},
		{name: "zero page", page: "0", wantPage: 1, wantSize: 10, errKeys: []string{"page"}},
		{name: "negative size", size: "-1", wantPage: 1, wantSize: 10, errKeys: []string{"page_size"}},
		{name: "both invalid", page: "x", size: "y", wantPage: 1, wantSize: 10, errKeys: []string{"page", "page_size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size, errs := ParsePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
			assert.Len(t, errs, len(tt.errKeys))
			for _, k := range tt.errKeys {
				assert.Contains(t, errs, k)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(3, 5)
	assert.Equal(t, 10, offset)
	assert.Equal(t, 5, limit)

	offset, limit = Calculate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, LastPage(0, 10))
	assert.Equal(t, 1, LastPage(10, 10))
	assert.Equal(t, 2, LastPage(11, 10))
	assert.Equal(t, 4, LastPage(10, 3))
}
