// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bootstrap builds the service graph shared by the API server and the
operator CLI.

Startup order:

 1. Catalog and zone store (PostgreSQL pool or embedded SQLite file).
 2. Zone cache (Redis, optional).
 3. Object storage for originals (S3-compatible bucket or local directory).
 4. Page templates, delivery builder and the domain services.

Everything opened here is released by [App.Close] in reverse order.
*/
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/core/zone"
	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/internal/platform/postgres"
	"github.com/taibuivan/atelier/internal/platform/redis"
	"github.com/taibuivan/atelier/internal/platform/sqlite"
	"github.com/taibuivan/atelier/internal/platform/storage"
)

// Check is a named dependency probe used by readiness reporting.
type Check struct {
	Name string
	Ping func(context context.Context) error
}

// App is the wired service graph.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Builder   *delivery.Builder
	Templates *zone.TemplateSet

	Assets *asset.Service
	Zones  *zone.Service
	Render *render.Service

	// Checks lists every backing service in startup order.
	Checks []Check

	closers []func()
}

// NewLogger returns the JSON logger every binary uses, tagged with the app name.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

/*
Open connects to every backing service named by cfg and wires the domain.

Description: Migrations are not applied here; the API server runs them
before calling Open and the CLI exposes them as a command. The SQLite
driver creates its schema on first open.

Returns:
  - *App: the wired graph; call Close when done
  - error: the first connection or configuration failure
*/
func Open(context context.Context, cfg *config.Config, logger *slog.Logger) (app *App, err error) {
	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	assetRepo, zoneRepo, err := app.openStore(context)
	if err != nil {
		return nil, err
	}

	cache, err := app.openCache(context)
	if err != nil {
		return nil, err
	}

	blobs, err := app.openStorage()
	if err != nil {
		return nil, err
	}

	if cfg.ZoneTemplatesPath != "" {
		app.Templates, err = zone.LoadTemplates(cfg.ZoneTemplatesPath)
	} else {
		app.Templates, err = zone.BuiltinTemplates()
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: templates: %w", err)
	}

	app.Builder = delivery.NewBuilder(delivery.Config{
		Host:      cfg.CDNHost,
		CloudName: cfg.CDNCloudName,
		Secure:    true,
	})

	app.Assets = asset.NewService(assetRepo, blobs, logger, cfg.UploadMaxBytes)
	app.Zones = zone.NewService(zoneRepo, app.Assets, cache, app.Templates, logger)
	app.Render = render.NewService(app.Zones, app.Assets, app.Builder, logger)

	logger.Info("services_wired",
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.Bool("zone_cache", cfg.RedisURL != ""),
		slog.Int("templates", len(app.Templates.Names())),
	)
	return app, nil
}

// Close releases connections in reverse order of opening.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

func (app *App) openStore(ctx context.Context) (asset.Repository, zone.Repository, error) {
	switch app.Config.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := sqlite.Open(ctx, app.Config.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: sqlite: %w", err)
		}
		app.onClose("sqlite", func() error { return db.Close() })
		app.addCheck("sqlite", func(context context.Context) error { return sqlite.Ping(context, db) })

		app.Logger.Info("sqlite_opened", slog.String("path", app.Config.SQLitePath))
		return asset.NewSQLiteRepository(db), zone.NewSQLiteRepository(db), nil

	default:
		pool, err := postgres.NewPool(ctx, app.Config.DatabaseURL, app.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: postgres: %w", err)
		}
		app.onClose("postgres", func() error { pool.Close(); return nil })
		app.addCheck("postgres", func(context context.Context) error { return postgres.Ping(context, pool) })

		return asset.NewPostgresRepository(pool), zone.NewPostgresRepository(pool), nil
	}
}

func (app *App) openCache(ctx context.Context) (zone.Cache, error) {
	if app.Config.RedisURL == "" {
		app.Logger.Warn("zone_cache_disabled")
		return zone.NoCache{}, nil
	}

	client, err := redis.NewClient(ctx, app.Config.RedisURL, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: redis: %w", err)
	}
	app.onClose("redis", client.Close)
	app.addCheck("redis", func(context context.Context) error { return redis.Ping(context, client) })

	return zone.NewRedisCache(client, app.Config.ZoneCacheTTL), nil
}

func (app *App) openStorage() (storage.ObjectStorage, error) {
	var (
		blobs storage.ObjectStorage
		err   error
	)

	switch app.Config.StorageDriver {
	case config.StorageDriverLocal:
		blobs, err = storage.NewLocal(app.Config.LocalStorageDir)
	default:
		blobs, err = storage.NewS3(storage.S3Config{
			Endpoint:  app.Config.S3Endpoint,
			Region:    app.Config.S3Region,
			Bucket:    app.Config.S3Bucket,
			AccessKey: app.Config.S3AccessKey,
			SecretKey: app.Config.S3SecretKey,
		}, app.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: object storage: %w", err)
	}

	app.addCheck("storage", blobs.Ping)
	return blobs, nil
}

func (app *App) onClose(name string, close func() error) {
	app.closers = append(app.closers, func() {
		if err := close(); err != nil {
			app.Logger.Error("dependency_close_failed", slog.String("dependency", name), slog.Any("error", err))
			return
		}
		app.Logger.Info("dependency_closed", slog.String("dependency", name))
	})
}

func (app *App) addCheck(name string, ping func(context context.Context) error) {
	app.Checks = append(app.Checks, Check{Name: name, Ping: ping})
}

// Compile-time checks that both drivers satisfy the repositories.
var (
	_ asset.Repository = (*asset.PostgresRepository)(nil)
	_ asset.Repository = (*asset.SQLiteRepository)(nil)
	_ zone.Repository  = (*zone.PostgresRepository)(nil)
	_ zone.Repository  = (*zone.SQLiteRepository)(nil)
	_ zone.Cache       = (*zone.RedisCache)(nil)
)
