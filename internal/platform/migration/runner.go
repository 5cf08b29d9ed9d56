// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running the PostgreSQL schema migrations of the catalog.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. The API server applies
// pending migrations at startup; the operator CLI exposes up, down and version.
// The embedded SQLite store manages its own schema and never goes through here.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Runner applies the migrations found under a directory to one database.
type Runner struct {
	sourceURL   string
	databaseURL string
	logger      *slog.Logger
}

// NewRunner builds a [Runner].
//
// # Parameters
//   - dsn: A libpq-compatible DSN or postgres:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func NewRunner(dsn, migrationsPath string, logger *slog.Logger) *Runner {
	return &Runner{
		sourceURL:   "file://" + migrationsPath,
		databaseURL: convertToPgx5DSN(dsn),
		logger:      logger,
	}
}

// RunUp applies all pending UP migrations.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	return NewRunner(dsn, migrationsPath, logger).Up()
}

// Up applies all pending UP migrations.
func (runner *Runner) Up() error {
	return runner.with(func(migrator *migrate.Migrate, currentVersion uint) error {
		logger := runner.logger
		logger.Info("migration_started", slog.Int("current_version", int(currentVersion)))

		if err := migrator.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				logger.Info("migration_already_up_to_date")
				return nil
			}
			return fmt.Errorf("migration: up failed: %w", err)
		}

		newVersion, _, _ := migrator.Version()
		logger.Info("migration_successful",
			slog.Int("from_version", int(currentVersion)),
			slog.Int("to_version", int(newVersion)),
		)
		return nil
	})
}

// Down rolls back the given number of migrations.
func (runner *Runner) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migration: down requires a positive step count, got %d", steps)
	}

	return runner.with(func(migrator *migrate.Migrate, currentVersion uint) error {
		if err := migrator.Steps(-steps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				return nil
			}
			return fmt.Errorf("migration: down failed: %w", err)
		}

		newVersion, _, _ := migrator.Version()
		runner.logger.Info("migration_rolled_back",
			slog.Int("from_version", int(currentVersion)),
			slog.Int("to_version", int(newVersion)),
		)
		return nil
	})
}

// Version reports the current schema version. Zero means no migration has run.
func (runner *Runner) Version() (uint, bool, error) {
	var version uint
	var dirty bool

	err := runner.open(func(migrator *migrate.Migrate) error {
		v, d, err := migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("migration: failed to get current version: %w", err)
		}
		version, dirty = v, d
		return nil
	})

	return version, dirty, err
}

// with opens the migrator and refuses to proceed on a dirty database.
func (runner *Runner) with(action func(migrator *migrate.Migrate, currentVersion uint) error) error {
	return runner.open(func(migrator *migrate.Migrate) error {
		currentVersion, isDirty, err := migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("migration: failed to get current version: %w", err)
		}

		if isDirty {
			return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
		}

		return action(migrator, currentVersion)
	})
}

func (runner *Runner) open(action func(migrator *migrate.Migrate) error) error {
	migrator, err := migrate.New(runner.sourceURL, runner.databaseURL)
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		sourceError, dbError := migrator.Close()
		if sourceError != nil {
			runner.logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
		}
		if dbError != nil {
			runner.logger.Error("migration_db_close_failed", slog.Any("error", dbError))
		}
	}()

	// Verbose logging via the slog bridge.
	migrator.Log = &migrateLogger{logger: runner.logger}

	return action(migrator)
}

// convertToPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func convertToPgx5DSN(dsn string) string {
	const pgx5Prefix = "pgx5://"

	if strings.HasPrefix(dsn, pgx5Prefix) {
		return dsn
	}

	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return pgx5Prefix + rest
		}
	}

	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
