package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single scan and exit",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	scheduler, err := newScheduler(s, newBus(ctx, s.cfg.Telegram))
	if err != nil {
		return err
	}

	report, err := scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Roles searched:   %d\n", len(report.Roles))
	fmt.Fprintf(out, "New jobs:         %d\n", len(report.NewJobs))
	fmt.Fprintf(out, "Duplicates:       %d\n", report.Duplicates)
	fmt.Fprintf(out, "Skipped entries:  %d\n", report.Skipped+report.Rejected)
	fmt.Fprintf(out, "Failed to save:   %d\n", report.Failed)
	fmt.Fprintf(out, "Broadcast:        %d\n", report.Broadcast)
	fmt.Fprintf(out, "Users notified:   %d\n", report.NotifiedUsers)
	for _, job := range report.NewJobs {
		fmt.Fprintf(out, "  + %s | %s | %s (%s)\n", job.Title, job.Company, job.Location, job.Source)
	}
	return nil
}
