package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/platform/middleware"
	"github.com/taibuivan/atelier/internal/platform/respond"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

func newTestRouter(t *testing.T) (*testEnv, http.Handler) {
	t.Helper()
	env := newTestEnv(t)

	router := chi.NewRouter()
	router.Route("/assets", func(assetRouter chi.Router) {
		NewHandler(env.service).RegisterRoutes(assetRouter, middleware.Unguarded)
	})
	return env, router
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, form.WriteField(name, value))
	}
	if filename != "" {
		part, err := form.CreateFormFile(FieldFile, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())
	return body, form.FormDataContentType()
}

func decodeData[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandler_UploadAndList(t *testing.T) {
	_, router := newTestRouter(t)

	body, contentType := multipartUpload(t, map[string]string{
		FieldDisplayName:    "Cake cutting",
		FieldCategory:       "reception",
		FieldTags:           "cake, toast",
		FieldCustomMetadata: `{"camera":"X-T5"}`,
	}, "IMG_0042.png", pngBytes(t, 12, 9))

	request := httptest.NewRequest(http.MethodPost, "/assets/", body)
	request.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	created := decodeData[Asset](t, recorder)
	assert.Equal(t, "Cake cutting", created.DisplayName)
	assert.Equal(t, []string{"cake", "toast"}, created.Tags)
	assert.Equal(t, map[string]string{"camera": "X-T5"}, created.CustomMetadata)
	assert.Equal(t, "assets/"+created.ID+"/img-0042.png", created.Source.Value())

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/assets/?category=reception&tags=toast", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var page respond.PaginatedEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Meta.Total)
}

func TestHandler_UploadWithoutFile(t *testing.T) {
	_, router := newTestRouter(t)

	body, contentType := multipartUpload(t, map[string]string{FieldCategory: "x"}, "", nil)
	request := httptest.NewRequest(http.MethodPost, "/assets/", body)
	request.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"field":"file"`)
}

func TestHandler_ExternalUpdateDelete(t *testing.T) {
	_, router := newTestRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/assets/external",
		strings.NewReader(`{"url":"https://images.example.com/arch.jpg","display_name":"Floral arch","width":1600,"height":1067}`)))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	created := decodeData[Asset](t, recorder)
	assert.True(t, created.Source.IsExternal())

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPatch, "/assets/"+created.ID,
		strings.NewReader(`{"category":"ceremony"}`)))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "ceremony", decodeData[Asset](t, recorder).Category)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPatch, "/assets/"+created.ID,
		strings.NewReader(`{"colour":"blue"}`)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/assets/"+created.ID+"?hard=true", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/assets/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// roleVerifier accepts any token and treats it as the role name.
type roleVerifier struct{}

func (roleVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	return &sec.AuthClaims{UserID: "operator-1", Role: token}, nil
}

func TestHandler_RoleGuards(t *testing.T) {
	env := newTestEnv(t)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(roleVerifier{}))
	router.Route("/assets", func(assetRouter chi.Router) {
		NewHandler(env.service).RegisterRoutes(assetRouter, middleware.RequireRole)
	})

	call := func(method, target, role, body string) int {
		request := httptest.NewRequest(method, target, strings.NewReader(body))
		if role != "" {
			request.Header.Set("Authorization", "Bearer "+role)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder.Code
	}

	external := `{"url":"https://images.example.com/a.jpg"}`
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/assets/", "", ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/assets/", "viewer", ""))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/assets/external", "viewer", external))
	assert.Equal(t, http.StatusCreated, call(http.MethodPost, "/assets/external", "editor", external))

	listed, _, err := env.service.List(context.Background(), Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	target := "/assets/" + listed[0].ID

	assert.Equal(t, http.StatusForbidden, call(http.MethodDelete, target+"?hard=true", "editor", ""))
	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, target, "editor", ""))
	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, target+"?hard=true", "admin", ""))
}
