package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxaizer/jobalert/internal/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scans on schedule",
	Long:  "Start the metrics server and the scan scheduler; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-now", false, "run one scan immediately after start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	server := metrics.StartMetricsServer(s.cfg.Metrics.Address)

	scheduler, err := newScheduler(s, newBus(ctx, s.cfg.Telegram))
	if err != nil {
		return err
	}

	if err = scheduler.Start(ctx, s.cfg.Schedule.Specs); err != nil {
		return err
	}

	if runOnStart {
		go scheduler.RunOnce(ctx)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to stop metrics server: %v", err)
	}
	log.Info("Services stopped.")
	return nil
}
