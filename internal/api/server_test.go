// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/bootstrap"
	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/core/zone"
	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/middleware"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, verifier *staticVerifier) (*bootstrap.App, http.Handler) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		ServerPort:      "0",
		Environment:     "development",
		StoreDriver:     config.StoreDriverSQLite,
		SQLitePath:      filepath.Join(dir, "atelier.db"),
		CDNHost:         "res.cloudinary.com",
		CDNCloudName:    "atelier-studio",
		StorageDriver:   config.StorageDriverLocal,
		LocalStorageDir: filepath.Join(dir, "originals"),
		UploadMaxBytes:  1 << 20,
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app, err := bootstrap.Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	var tokenVerifier middleware.TokenVerifier
	if verifier != nil {
		tokenVerifier = verifier
	}
	guard, err := OperatorGuard(cfg, tokenVerifier, discardLogger())
	require.NoError(t, err)

	liveness, readiness := NewHealthHandlers(app.Checks, discardLogger())
	handlers := Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Assets:    asset.NewHandler(app.Assets),
		Zones:     zone.NewHandler(app.Zones),
		Render:    render.NewHandler(app.Render),
	}

	server := NewServer(ctx, cfg, discardLogger(), tokenVerifier, guard, handlers)
	return app, server.Handler()
}

type staticVerifier struct {
	role string
}

func (verifier *staticVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "valid" {
		return nil, errors.New("bad token")
	}
	return &sec.AuthClaims{UserID: "operator", Role: verifier.role}, nil
}

func do(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.RemoteAddr = "192.0.2.10:4000"
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestServer_Health(t *testing.T) {
	_, handler := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/health", "", "").Code)

	recorder := do(handler, http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var envelope struct {
		Data struct {
			Status string        `json:"status"`
			Checks []checkResult `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "ready", envelope.Data.Status)

	names := make([]string, 0, len(envelope.Data.Checks))
	for _, check := range envelope.Data.Checks {
		names = append(names, check.Name)
		assert.True(t, check.IsOK, check.Name)
	}
	assert.Equal(t, []string{"sqlite", "storage"}, names)
}

func TestReadiness_Degraded(t *testing.T) {
	_, readiness := NewHealthHandlers([]bootstrap.Check{
		{Name: "postgres", Ping: func(context.Context) error { return nil }},
		{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	}, discardLogger())

	recorder := httptest.NewRecorder()
	readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"degraded"`)
	assert.Contains(t, recorder.Body.String(), "connection refused")
}

func TestServer_ZoneToRender(t *testing.T) {
	app, handler := newTestServer(t, nil)

	created, err := app.Assets.CreateExternal(context.Background(), asset.ExternalInput{URL: "https://images.example.com/veil.jpg"})
	require.NoError(t, err)

	recorder := do(handler, http.MethodPost, "/api/v1/zones/templates/home/apply", "", `{"page_path":"/"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	hero, err := app.Zones.Resolve(context.Background(), "/", "hero")
	require.NoError(t, err)
	require.NotNil(t, hero.Zone)

	recorder = do(handler, http.MethodPut, "/api/v1/zones/"+hero.Zone.ID+"/asset", "", `{"asset_id":"`+created.ID+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = do(handler, http.MethodGet, "/api/v1/render/zone?page=/&zone=hero&priority=1", "", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Contains(t, recorder.Body.String(), `"src":"https://images.example.com/veil.jpg"`)
	assert.Contains(t, recorder.Body.String(), `"loading":"eager"`)
}

func TestServer_OperatorRoutesNeedToken(t *testing.T) {
	_, handler := newTestServer(t, &staticVerifier{role: "editor"})

	assert.Equal(t, http.StatusUnauthorized, do(handler, http.MethodGet, "/api/v1/zones/", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(handler, http.MethodGet, "/api/v1/zones/", "forged", "").Code)
	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/api/v1/zones/", "valid", "").Code)
	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/api/v1/render/zone?zone=hero", "", "").Code)
}

func TestOperatorGuard(t *testing.T) {
	production := &config.Config{Environment: "production"}
	_, err := OperatorGuard(production, nil, discardLogger())
	assert.Error(t, err)

	guard, err := OperatorGuard(production, &staticVerifier{}, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, guard)
}
