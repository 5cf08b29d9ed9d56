// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/migration"
)

var errNotPostgres = errors.New("migrations apply to STORE_DRIVER=postgres only; the sqlite store manages its own schema")

func newMigrateCommand(state *cli) *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL catalog schema",
	}

	runner := func() (*migration.Runner, error) {
		if state.cfg.StoreDriver != config.StoreDriverPostgres {
			return nil, errNotPostgres
		}
		return migration.NewRunner(state.cfg.DatabaseURL, state.cfg.MigrationPath, state.logger), nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner()
			if err != nil {
				return err
			}
			return r.Up()
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default one step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("steps must be a number: %w", err)
				}
				steps = parsed
			}
			r, err := runner()
			if err != nil {
				return err
			}
			return r.Down(steps)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner()
			if err != nil {
				return err
			}
			current, dirty, err := r.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", current, dirty)
			return nil
		},
	}

	command.AddCommand(up, down, version)
	return command
}
