// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/internal/platform/ctxutil"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

var okHandler = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

func TestIPLimiter_BurstAndSweep(t *testing.T) {
	limiter := &ipLimiter{clients: make(map[string]*rateLimitClient)}
	now := time.Now()

	for i := 0; i < constants.DefaultRateLimitBurst; i++ {
		require.True(t, limiter.allow("203.0.113.7", now), "request %d", i)
	}
	assert.False(t, limiter.allow("203.0.113.7", now))
	assert.True(t, limiter.allow("198.51.100.2", now), "buckets are per ip")

	limiter.sweep(now.Add(constants.RateLimitClientTTL+time.Second), constants.RateLimitClientTTL)
	assert.Empty(t, limiter.clients)
}

func TestRateLimit_SweeperStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	handler := RateLimit(ctx)(okHandler)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	cancel()
	// goleak retries until the sweeper has observed the cancellation.
}

type corsConfig struct {
	development bool
	allowed     string
}

func (c corsConfig) IsDevelopment() bool              { return c.development }
func (c corsConfig) AllowedOrigin(origin string) bool { return origin == c.allowed }

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        corsConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"development allows any", corsConfig{development: true}, http.MethodGet, "http://localhost:3000", "http://localhost:3000", http.StatusOK},
		{"production allows listed", corsConfig{allowed: "https://studio.example"}, http.MethodGet, "https://studio.example", "https://studio.example", http.StatusOK},
		{"production ignores unlisted", corsConfig{allowed: "https://studio.example"}, http.MethodGet, "https://evil.example", "", http.StatusOK},
		{"preflight short circuits", corsConfig{development: true}, http.MethodOptions, "http://localhost:3000", "http://localhost:3000", http.StatusNoContent},
		{"no origin", corsConfig{}, http.MethodGet, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, "/api/v1/zones", nil)
			if tt.origin != "" {
				request.Header.Set(constants.HeaderOrigin, tt.origin)
			}
			recorder := httptest.NewRecorder()

			CORS(tt.cfg)(okHandler).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantOrigin, recorder.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.10:5123"
	assert.Equal(t, "192.0.2.10", RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", RealIP(request))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.2")
	assert.Equal(t, "198.51.100.2", RealIP(request))
}

type editorVerifier struct{}

func (editorVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "editor-token" {
		return nil, errors.New("bad signature")
	}
	return &sec.AuthClaims{UserID: "operator-7", Role: string(sec.RoleEditor)}, nil
}

func TestAuthenticate(t *testing.T) {
	var seen *sec.AuthClaims
	handler := Authenticate(editorVerifier{})(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.Operator(request.Context())
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"bearer", "Bearer editor-token", http.StatusOK, "operator-7"},
		{"lowercase scheme", "bearer editor-token", http.StatusOK, "operator-7"},
		{"wrong scheme", "Basic editor-token", http.StatusUnauthorized, ""},
		{"bad token", "Bearer forged", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantUser == "" {
				assert.Nil(t, seen)
			} else {
				require.NotNil(t, seen)
				assert.Equal(t, tt.wantUser, seen.UserID)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	chain := func(role sec.UserRole) http.Handler {
		return Authenticate(editorVerifier{})(RequireRole(role)(okHandler))
	}
	serve := func(handler http.Handler, token string) int {
		request := httptest.NewRequest(http.MethodDelete, "/", nil)
		if token != "" {
			request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(chain(sec.RoleViewer), ""))
	assert.Equal(t, http.StatusOK, serve(chain(sec.RoleViewer), "editor-token"))
	assert.Equal(t, http.StatusOK, serve(chain(sec.RoleEditor), "editor-token"))
	assert.Equal(t, http.StatusForbidden, serve(chain(sec.RoleAdmin), "editor-token"))

	assert.Equal(t, http.StatusOK, serve(Unguarded(sec.RoleAdmin)(okHandler), ""))
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("template exploded")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_SERVER_ERROR")
	assert.NotContains(t, recorder.Body.String(), "template exploded")
}

func TestStructuredLogger_RecordsOperator(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestID()(StructuredLogger(logger)(Authenticate(editorVerifier{})(okHandler)))

	request := httptest.NewRequest(http.MethodPut, "/api/v1/zones/z1/asset", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer editor-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "http_request_finished", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "operator-7", line["operator_id"])
	assert.Equal(t, "editor", line["operator_role"])
	assert.Equal(t, recorder.Header().Get(constants.HeaderXRequestID), line["request_id"])
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.RequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "edge-42")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "edge-42", seen)

	request.Header.Set(constants.HeaderXRequestID, strings.Repeat("x", maxRequestIDLength+1))
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Len(t, seen, 36)
}

func TestRequestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, requestLogLevel("/ready", http.StatusOK))
	assert.Equal(t, slog.LevelError, requestLogLevel("/ready", http.StatusServiceUnavailable))
	assert.Equal(t, slog.LevelWarn, requestLogLevel("/api/v1/render/zone", http.StatusBadRequest))
	assert.Equal(t, slog.LevelInfo, requestLogLevel("/api/v1/render/zone", http.StatusOK))
}
