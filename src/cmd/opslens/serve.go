package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"opslens/src/pipeline"
	"opslens/src/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the log API",
		Long: `Serve GET/POST/DELETE /logs, GET /logs/{id}, GET /analytics, GET /rules,
GET /healthz and GET /metrics.

In distributed mode (OPSLENS_BROKERS set) an ingest agent also consumes raw
batches published by "opslens collect --publish".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mode := pipeline.DetectMode(a.cfg)
			a.log.Info("[Serve] Starting in %s mode", mode)

			if mode == pipeline.DistributedMode {
				brk, err := pipeline.NewBroker(a.cfg, a.log)
				if err != nil {
					return err
				}
				defer brk.Close()
				pipeline.Start(ctx, brk, a.svc, a.cfg, a.log)
			}

			srv := server.New(a.svc, a.metrics, a.cfg, a.log)
			if err := srv.ListenAndServe(ctx); err != nil && err != context.Canceled {
				return err
			}
			a.log.Info("[Serve] Stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
