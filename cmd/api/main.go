// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Atelier image delivery API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Run database migrations (PostgreSQL only; idempotent).
//  4. Open the store, cache and object storage and wire the services.
//  5. Load the operator token verifier.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/atelier/internal/api"
	"github.com/taibuivan/atelier/internal/bootstrap"
	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/core/zone"
	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/internal/platform/middleware"
	"github.com/taibuivan/atelier/internal/platform/migration"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := bootstrap.NewLogger(false)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = bootstrap.NewLogger(true)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	// Root context: cancelled on shutdown so background sweepers stop.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, constants.StartupTimeout)
	defer startupCancel()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	if cfg.StoreDriver == config.StoreDriverPostgres {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
	}

	// ── 4. Services ───────────────────────────────────────────────────────
	app, err := bootstrap.Open(startupCtx, cfg, log)
	must(log, err, "open dependencies")
	defer app.Close()

	// ── 5. Operator tokens ────────────────────────────────────────────────
	var verifier middleware.TokenVerifier
	if cfg.JWTPubKeyPath != "" {
		tokenVerifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
		must(log, err, "load operator token verifier")
		verifier = tokenVerifier
	}

	guard, err := api.OperatorGuard(cfg, verifier, log)
	must(log, err, "configure operator access")

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(app.Checks, log)
	server := api.NewServer(rootCtx, cfg, log, verifier, guard, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Assets:    asset.NewHandler(app.Assets),
		Zones:     zone.NewHandler(app.Zones),
		Render:    render.NewHandler(app.Render),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		app.Close()
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
