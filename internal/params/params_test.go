package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: DefaultLimit, wantPage: 1, wantOffset: 0},
		{name: "explicit", query: "page=3&limit=10", wantLimit: 10, wantPage: 3, wantOffset: 20},
		{name: "limit capped", query: "limit=1000", wantLimit: MaxLimit, wantPage: 1, wantOffset: 0},
		{name: "garbage ignored", query: "page=abc&limit=-4", wantLimit: DefaultLimit, wantPage: 1, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p := ParsePagination(q)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	p.ComputeMeta(25)

	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)
}

func TestOptionalBool(t *testing.T) {
	q := url.Values{"active": {"true"}, "bad": {"maybe"}}

	v, err := OptionalBool(q, "active")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)

	v, err = OptionalBool(q, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = OptionalBool(q, "bad")
	assert.Error(t, err)
}
