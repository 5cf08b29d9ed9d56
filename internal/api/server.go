// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - Public render endpoints are open; the catalog browser and zone editor sit
    behind the operator [middleware.Guard].
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/core/zone"
	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler; always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; 200 when every dependency answers.
	Readiness http.HandlerFunc

	// Assets is the catalog browser.
	Assets *asset.Handler

	// Zones is the zone editor.
	Zones *zone.Handler

	// Render serves image markup to the public site.
	Render *render.Handler
}

// # Operator Access

var errOperatorAuthRequired = errors.New("api: operator routes need JWT_PUBLIC_KEY_PATH outside development")

/*
OperatorGuard picks the guard for operator routes.

Description: With a verifier, routes require a token carrying the route's
minimum role. Without one, development servers leave the routes open (with a
warning) and every other environment refuses to start.
*/
func OperatorGuard(cfg *config.Config, verifier middleware.TokenVerifier, log *slog.Logger) (middleware.Guard, error) {
	if verifier != nil {
		return middleware.RequireRole, nil
	}
	if !cfg.IsDevelopment() {
		return nil, errOperatorAuthRequired
	}

	log.Warn("operator_routes_unprotected", slog.String("environment", cfg.Environment))
	return middleware.Unguarded, nil
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, guard middleware.Guard, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/render", h.Render.RegisterRoutes)
		api.Route("/assets", func(assetRouter chi.Router) {
			h.Assets.RegisterRoutes(assetRouter, guard)
		})
		api.Route("/zones", func(zoneRouter chi.Router) {
			h.Zones.RegisterRoutes(zoneRouter, guard)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
