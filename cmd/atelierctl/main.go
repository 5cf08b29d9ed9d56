// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command atelierctl is the operator CLI for the Atelier image pipeline.
//
// It reads the same environment configuration as the API server and works
// directly against the store: schema migrations, page templates, zone
// rendering and CDN warm-up.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taibuivan/atelier/internal/bootstrap"
	"github.com/taibuivan/atelier/internal/platform/config"
	"github.com/taibuivan/atelier/internal/platform/constants"
)

// cli holds what every subcommand shares once the root pre-run has loaded it.
type cli struct {
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
}

// open wires the full service graph. Callers must Close the result.
func (c *cli) open(ctx context.Context) (*bootstrap.App, error) {
	startupCtx, cancel := context.WithTimeout(ctx, constants.StartupTimeout)
	defer cancel()
	return bootstrap.Open(startupCtx, c.cfg, c.logger)
}

func newRootCommand() *cobra.Command {
	state := &cli{}

	root := &cobra.Command{
		Use:           "atelierctl",
		Short:         "Operate the Atelier image delivery pipeline",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.logger = bootstrap.NewLogger(state.verbose || cfg.Debug)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCommand(state),
		newTemplatesCommand(state),
		newApplyTemplateCommand(state),
		newRenderCommand(state),
		newWarmCommand(state),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
