package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/api"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the execution API",
		Example: `  canvasflow serve --addr :8080
  CANVASFLOW_METRICS=prometheus canvasflow serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, logger, err := loadSettings(cmd, g)
			if err != nil {
				return err
			}
			if addr != "" {
				settings.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			session, err := canvasflow.Open(ctx, settings, reg, canvasflow.WithLogger(logger))
			if err != nil {
				return err
			}
			defer session.Close()

			srv := api.NewServer(session.Scheduler(), nil, logger, api.WithGatherer(reg))
			return srv.ListenAndServe(ctx, settings.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; overrides settings")
	return cmd
}
