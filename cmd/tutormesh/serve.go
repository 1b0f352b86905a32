package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tutormesh"
	"github.com/hupe1980/tutormesh/metrics"
	"github.com/hupe1980/tutormesh/server"
)

func serveCMD(flags *rootFlags) *cobra.Command {
	var addr string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var m *metrics.Metrics
			if cfg.Server.MetricsEnabled {
				m = metrics.New()
			}

			tutor, err := tutormesh.New(ctx, cfg, func(o *tutormesh.Options) {
				o.Logger = logger
				o.Metrics = m
			})
			if err != nil {
				return err
			}
			defer tutor.Close()

			srv := server.New(tutor, func(o *server.Options) {
				o.AllowOrigins = cfg.Server.AllowOrigins
				o.Logger = logger
				o.Metrics = m
			})

			return srv.Run(ctx, cfg.Server.Address)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return serve
}
