package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/executor"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
)

func newPaletteCmd(g *globalOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List node templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(g.output); err != nil {
				return err
			}
			settings, _, err := loadSettings(cmd, g)
			if err != nil {
				return err
			}
			catalog := palette.Default()
			if settings.Editor.Palette != "" {
				if catalog, err = palette.LoadFile(settings.Editor.Palette); err != nil {
					return err
				}
			}

			templates := catalog.Templates()
			if category != "" {
				templates = catalog.ByCategory(category)
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(templates)
			}

			registry := executor.NewBuiltinRegistry()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tLABEL\tEXECUTOR")
			for _, t := range templates {
				exec := "-"
				if registry.Has(t.ID) {
					exec = "builtin"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Category, t.DisplayLabel(), exec)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list templates in this category")
	return cmd
}
