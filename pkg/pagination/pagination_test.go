package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: DefaultLimit}},
		{"?page=3&limit=12", Params{Page: 3, Limit: 12}},
		{"?page=0&limit=-5", Params{Page: 1, Limit: DefaultLimit}},
		{"?page=two&limit=lots", Params{Page: 1, Limit: DefaultLimit}},
		{"?limit=500", Params{Page: 1, Limit: MaxLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, FromRequest(httptest.NewRequest("GET", "/api/v1/assets"+tt.query, nil)))
		})
	}
}

func TestParams_OffsetAndMeta(t *testing.T) {
	params := Params{Page: 2, Limit: 24}
	assert.Equal(t, 24, params.Offset())
	assert.Equal(t, 0, Params{Page: 1, Limit: 24}.Offset())

	meta := params.Meta(50)
	assert.Equal(t, Meta{Page: 2, Limit: 24, Total: 50, TotalPages: 3, HasMore: true}, meta)
	assert.False(t, Params{Page: 3, Limit: 24}.Meta(50).HasMore)
	assert.Equal(t, 0, NewMeta(1, 0, 10).TotalPages)
}
