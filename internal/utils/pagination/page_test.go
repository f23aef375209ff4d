package pagination_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/motorplace/internal/utils/pagination"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name             string
		page, size       int
		def, max         int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 20, 100, 1, 20},
		{"negative page", -3, 10, 20, 100, 1, 10},
		{"capped", 2, 500, 20, 100, 2, 100},
		{"no cap", 1, 500, 20, 0, 1, 500},
		{"zero default falls back", 1, 0, 0, 0, 1, pagination.DefaultPageSize},
		{"huge page clamped", math.MaxInt, 10, 20, 100, pagination.MaxPage, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := pagination.Normalize(tc.page, tc.size, tc.def, tc.max)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantSz, p.PageSize)
		})
	}
}

func TestOffsetAndHasMore(t *testing.T) {
	p := pagination.Params{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 10, p.Limit())

	assert.True(t, p.HasMore(10, 31))
	assert.False(t, p.HasMore(10, 30))
	assert.False(t, p.HasMore(0, 0))
}
