// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/delivery"
)

type renderFlags struct {
	width       int
	height      int
	sizes       string
	priority    bool
	breakpoints []int
	purpose     string
	asJSON      bool
}

func (flags *renderFlags) options() render.Options {
	return render.Options{
		Width:       flags.width,
		Height:      flags.height,
		Sizes:       flags.sizes,
		Priority:    flags.priority,
		Breakpoints: flags.breakpoints,
	}
}

func newRenderCommand(state *cli) *cobra.Command {
	flags := &renderFlags{}

	command := &cobra.Command{
		Use:   "render",
		Short: "Print the image markup for a zone or an asset",
	}
	command.PersistentFlags().IntVar(&flags.width, "width", 0, "requested width in pixels")
	command.PersistentFlags().IntVar(&flags.height, "height", 0, "requested height in pixels")
	command.PersistentFlags().StringVar(&flags.sizes, "sizes", "", "sizes attribute")
	command.PersistentFlags().BoolVar(&flags.priority, "priority", false, "render eagerly")
	command.PersistentFlags().IntSliceVar(&flags.breakpoints, "breakpoints", nil, "srcset widths")
	command.PersistentFlags().BoolVar(&flags.asJSON, "json", false, "print the full markup as JSON")

	zoneCmd := &cobra.Command{
		Use:   "zone <page-path> <zone>",
		Short: "Render whatever is assigned to a page zone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			view, err := app.Render.RenderZone(cmd.Context(), args[0], args[1], flags.options())
			if err != nil {
				return err
			}
			return printView(cmd, view, flags.asJSON)
		},
	}

	assetCmd := &cobra.Command{
		Use:   "asset <id>",
		Short: "Render one asset for a purpose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			purpose := delivery.ParsePurpose(flags.purpose)
			view, err := app.Render.RenderAsset(cmd.Context(), args[0], purpose, flags.options())
			if err != nil {
				return err
			}
			return printView(cmd, view, flags.asJSON)
		},
	}
	assetCmd.Flags().StringVar(&flags.purpose, "purpose", string(delivery.PurposeGallery), "delivery purpose")

	command.AddCommand(zoneCmd, assetCmd)
	return command
}

func printView(cmd *cobra.Command, view *render.View, asJSON bool) error {
	out := cmd.OutOrStdout()
	if view == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "nothing renders in this slot")
		return nil
	}
	if !asJSON {
		_, err := fmt.Fprintln(out, view.HTML)
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}
