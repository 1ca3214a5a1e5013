package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/persist"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
)

type runOptions struct {
	mode  string
	apply bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <graph-file>",
		Short: "Execute a saved graph",
		Example: `  # Run a graph saved by the editor
  canvasflow run graphs/default.json

  # Run independent nodes concurrently and print JSON
  canvasflow run graphs/default.yaml --mode waves -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, g, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Dispatch mode (sequential, waves); overrides settings")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write node statuses back to the graph file")
	return cmd
}

func runGraph(cmd *cobra.Command, g *globalOptions, opts *runOptions, path string) error {
	if err := checkOutput(g.output); err != nil {
		return err
	}
	settings, logger, err := loadSettings(cmd, g)
	if err != nil {
		return err
	}
	if opts.mode != "" {
		settings.Scheduler.Mode = opts.mode
	}

	state, err := persist.ReadFile(path)
	if err != nil {
		return err
	}
	if state.GraphID != "" {
		settings.Editor.GraphID = state.GraphID
	}

	ctx := cmd.Context()
	session, err := canvasflow.Open(ctx, settings, nil, canvasflow.WithLogger(logger))
	if err != nil {
		return err
	}
	defer session.Close()

	dropped, err := session.Store().Restore(state.Snapshot())
	if err != nil {
		return fmt.Errorf("restore graph: %w", err)
	}
	if dropped > 0 {
		logger.Warn("dropped invalid connections", slog.Int("dropped", dropped))
	}

	res, err := session.Execute(ctx)
	if err != nil {
		return err
	}

	if opts.apply {
		session.ApplyResult(res)
		next := persist.NewState(session.GraphID(), session.Store().Snapshot(), state.Viewport)
		if err := persist.WriteFile(path, next); err != nil {
			return err
		}
	}
	return printResult(cmd.OutOrStdout(), g.output, res)
}

func printResult(w io.Writer, format string, res *scheduler.Result) error {
	if format == jsonFormat {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "execution %s (%s)\n", res.ID, res.GraphID)
	fmt.Fprintf(w, "  status:    %s\n", res.Status)
	fmt.Fprintf(w, "  nodes:     %d completed, %d failed, %d total\n", res.CompletedNodes, res.FailedNodes, res.TotalNodes)
	fmt.Fprintf(w, "  duration:  %s\n", res.Duration)
	if len(res.CycleFallback) > 0 {
		ids := make([]string, len(res.CycleFallback))
		for i, id := range res.CycleFallback {
			ids[i] = id.String()
		}
		fmt.Fprintf(w, "  cycle:     %s\n", strings.Join(ids, ", "))
	}
	for _, nr := range res.Nodes {
		line := fmt.Sprintf("  %-10s %-14s %s", nr.NodeID, nr.Type, nr.Status)
		switch {
		case nr.Error != "":
			line += ": " + nr.Error
		case nr.Output != nil:
			line += " -> " + summarize(nr.Output)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func summarize(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = fmt.Sprintf("%q", t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(data)
		}
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
