package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/config"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
)

// Output format constants.
const (
	jsonFormat = "json"
	textFormat = "text"
)

const defaultEnvFile = ".env"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "canvasflow",
		Short: "Run and inspect canvas node graphs",
		Long: `canvasflow executes node graphs built in the canvas editor.

Graphs are saved as JSON or YAML documents. Executions are recorded in the
configured history store and can be listed or served over HTTP.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Settings file (yaml or json)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "Environment file loaded before CANVASFLOW_* overrides")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", textFormat, "Output format (text, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newRunCmd(opts),
		newHistoryCmd(opts),
		newServeCmd(opts),
		newPaletteCmd(opts),
	)
	return root
}

// loadSettings reads the env file, the settings file and environment
// overrides, then builds the logger.
func loadSettings(cmd *cobra.Command, opts *globalOptions) (config.Settings, *slog.Logger, error) {
	if opts.envFile != "" {
		err := godotenv.Load(opts.envFile)
		if err != nil && !(opts.envFile == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
			return config.Settings{}, nil, fmt.Errorf("load env file: %w", err)
		}
	}

	settings := config.Default()
	if opts.configPath != "" {
		s, err := config.Load(opts.configPath)
		if err != nil {
			return config.Settings{}, nil, err
		}
		settings = s
	}
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return config.Settings{}, nil, err
	}
	if opts.verbose {
		settings.Log.Level = "debug"
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := observability.NewLogger(settings.Log.Level, settings.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, logger, nil
}

func checkOutput(format string) error {
	switch format {
	case textFormat, jsonFormat:
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
