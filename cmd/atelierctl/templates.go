// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/atelier/internal/core/zone"
)

func newTemplatesCommand(state *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the page templates and the zones each creates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := loadTemplates(state)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "TEMPLATE\tZONE\tPURPOSE\tHINTS")
			for _, template := range templates.All() {
				for _, slot := range template.Zones {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", template.Name, slot.Name, slot.Purpose, hints(slot))
				}
			}
			return writer.Flush()
		},
	}
}

func newApplyTemplateCommand(state *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "apply-template <template> <page-path>",
		Short: "Create a template's zones on a page, keeping any that exist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Zones.ApplyTemplate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s on %s: %d created, %d skipped\n",
				result.Template, result.PagePath, len(result.Created), len(result.Skipped))
			for _, created := range result.Created {
				fmt.Fprintf(out, "  + %s (%s)\n", created.Name, created.ID)
			}
			for _, skipped := range result.Skipped {
				fmt.Fprintf(out, "  = %s\n", skipped)
			}
			return nil
		},
	}
}

func loadTemplates(state *cli) (*zone.TemplateSet, error) {
	if state.cfg.ZoneTemplatesPath != "" {
		return zone.LoadTemplates(state.cfg.ZoneTemplatesPath)
	}
	return zone.BuiltinTemplates()
}

func hints(slot zone.ZoneTemplate) string {
	var parts []string
	if slot.Width != nil && slot.Height != nil {
		parts = append(parts, fmt.Sprintf("%dx%d", *slot.Width, *slot.Height))
	}
	if slot.AspectRatio != "" {
		parts = append(parts, slot.AspectRatio)
	}
	if slot.ObjectFit != "" {
		parts = append(parts, slot.ObjectFit)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
