// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	requestutil "github.com/taibuivan/atelier/internal/platform/request"
	"github.com/taibuivan/atelier/internal/platform/validate"
)

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}

	request := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"hero"}`))
	require.NoError(t, requestutil.DecodeJSON(request, &body))
	assert.Equal(t, "hero", body.Name)

	request = httptest.NewRequest("POST", "/", strings.NewReader(`{"unknown":1}`))
	assert.Equal(t, validate.ErrInvalidJSON, requestutil.DecodeJSON(request, &body))

	request = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	assert.Equal(t, validate.ErrInvalidJSON, requestutil.DecodeJSON(request, &body))
}

func TestQueryInt(t *testing.T) {
	request := httptest.NewRequest("GET", "/?w=640&h=abc", nil)

	width, err := requestutil.QueryInt(request, "w")
	require.NoError(t, err)
	assert.Equal(t, 640, width)

	_, err = requestutil.QueryInt(request, "h")
	assert.Error(t, err)

	missing, err := requestutil.QueryInt(request, "missing")
	require.NoError(t, err)
	assert.Zero(t, missing)
}

func TestQueryBool(t *testing.T) {
	request := httptest.NewRequest("GET", "/?priority=true&hard=nope", nil)

	assert.True(t, requestutil.QueryBool(request, "priority"))
	assert.False(t, requestutil.QueryBool(request, "hard"))
	assert.False(t, requestutil.QueryBool(request, "missing"))
}
