// Command canvasflow-tui is a terminal node editor.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/config"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/persist"
)

type options struct {
	configPath string
	envFile    string
	graphID    string
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "canvasflow-tui",
		Short:        "Edit and run node graphs in the terminal",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Settings file (yaml or json)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before CANVASFLOW_* overrides")
	cmd.Flags().StringVarP(&opts.graphID, "graph", "g", "", "Graph to open; overrides settings")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	settings := config.Default()
	if opts.configPath != "" {
		s, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		settings = s
	}
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if opts.graphID != "" {
		settings.Editor.GraphID = opts.graphID
	}

	var logOut io.Writer = io.Discard
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := observability.NewLogger(settings.Log.Level, settings.Log.Format, logOut)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := canvasflow.Open(ctx, settings, nil, canvasflow.WithLogger(logger))
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Load(ctx); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return err
	}

	p := tea.NewProgram(newModel(session), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}
