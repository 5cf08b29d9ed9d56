package zone

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/platform/middleware"
)

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, target, strings.NewReader(body)))
	return recorder
}

func decodeData[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope), recorder.Body.String())
	return envelope.Data
}

func TestHandler_EditorFlow(t *testing.T) {
	env := newTestEnv(t)
	router := chi.NewRouter()
	router.Route("/zones", func(zoneRouter chi.Router) {
		NewHandler(env.zones).RegisterRoutes(zoneRouter, middleware.Unguarded)
	})

	recorder := serve(router, http.MethodGet, "/zones/templates", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, decodeData[[]Template](t, recorder), 5)

	recorder = serve(router, http.MethodPost, "/zones/templates/home/apply", `{"page_path":"/"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	applied := decodeData[ApplyResult](t, recorder)
	assert.Len(t, applied.Created, 6)

	recorder = serve(router, http.MethodGet, "/zones/?page=/", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	zones := decodeData[[]Zone](t, recorder)
	require.Len(t, zones, 6)

	var heroID string
	for _, z := range zones {
		if z.Name == "hero" {
			heroID = z.ID
		}
	}
	require.NotEmpty(t, heroID)

	uploaded := env.upload(t, "hero.png")

	recorder = serve(router, http.MethodPut, "/zones/"+heroID+"/asset", `{"asset_id":"`+uploaded.ID+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assigned := decodeData[Zone](t, recorder)
	require.NotNil(t, assigned.AssignedAssetID)
	assert.Equal(t, uploaded.ID, *assigned.AssignedAssetID)

	recorder = serve(router, http.MethodPatch, "/zones/"+heroID+"/overrides", `{"object_fit":"contain","aspect_ratio":"3:2"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "3:2", decodeData[Zone](t, recorder).Overrides.AspectRatio)

	recorder = serve(router, http.MethodDelete, "/zones/"+heroID+"/asset", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, decodeData[Zone](t, recorder).AssignedAssetID)

	recorder = serve(router, http.MethodDelete, "/zones/"+heroID, "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = serve(router, http.MethodGet, "/zones/"+heroID, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHandler_CreateConflict(t *testing.T) {
	env := newTestEnv(t)
	router := chi.NewRouter()
	router.Route("/zones", func(zoneRouter chi.Router) {
		NewHandler(env.zones).RegisterRoutes(zoneRouter, middleware.Unguarded)
	})

	body := `{"page_path":"/gallery","name":"Hero","purpose":"hero"}`
	assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/zones/", body).Code)
	assert.Equal(t, http.StatusConflict, serve(router, http.MethodPost, "/zones/", body).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/zones/", `{"page":"/"}`).Code)
}
