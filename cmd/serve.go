package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/api"
	"github.com/kilianp07/rakeplan/core/monitoring"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer monitoring.Current().Recover()
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	if addr := cfg.Metrics.PrometheusAddr; addr != "" && addr != cfg.API.Addr {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				logger.New("main").Errorf("prom server: %v", err)
			}
		}()
	}
	return api.Serve(ctx, cfg.API.Addr, api.NewMux(svc))
}
