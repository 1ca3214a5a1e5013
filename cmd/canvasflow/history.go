package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [graph-id]",
		Short: "List recent executions of a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(g.output); err != nil {
				return err
			}
			settings, _, err := loadSettings(cmd, g)
			if err != nil {
				return err
			}
			graphID := settings.Editor.GraphID
			if len(args) == 1 {
				graphID = args[0]
			}

			ctx := cmd.Context()
			store, err := canvasflow.OpenHistory(ctx, settings.History)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List(ctx, graphID, limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			results := make([]*scheduler.Result, 0, len(recs))
			for _, rec := range recs {
				res, err := scheduler.DecodeResult(rec)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			if len(results) == 0 {
				fmt.Fprintf(out, "no executions for %s\n", graphID)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EXECUTION\tSTATUS\tNODES\tFAILED\tSTARTED\tDURATION")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.Status, r.TotalNodes, r.FailedNodes,
					r.StartedAt.Local().Format(time.DateTime), r.Duration)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum executions to list")
	return cmd
}
