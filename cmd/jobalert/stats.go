package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	latestLimit int
	fingerprint string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print job and user counters",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&latestLimit, "latest", 10, "number of most recent jobs to show")
	statsCmd.Flags().StringVar(&fingerprint, "fingerprint", "", "report whether a job with this fingerprint is stored")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if fingerprint != "" {
		return printFingerprint(cmd, s, fingerprint)
	}

	total, err := s.jobs.Count(ctx)
	if err != nil {
		return err
	}
	lastDay, err := s.jobs.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	companies, err := s.jobs.DistinctCompanies(ctx)
	if err != nil {
		return err
	}
	activeUsers, err := s.users.CountActive(ctx)
	if err != nil {
		return err
	}
	roles, err := s.users.DistinctRoles(ctx)
	if err != nil {
		return err
	}
	latest, err := s.jobs.Latest(ctx, latestLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total jobs:          %d\n", total)
	fmt.Fprintf(out, "Jobs in last 24h:    %d\n", lastDay)
	fmt.Fprintf(out, "Companies:           %d\n", len(companies))
	fmt.Fprintf(out, "Active users:        %d\n", activeUsers)
	fmt.Fprintf(out, "Tracked roles:       %d\n", len(roles))

	if len(latest) > 0 {
		fmt.Fprintln(out, "\nLatest jobs:")
		for _, job := range latest {
			fmt.Fprintf(out, "  %s  %-40s %-25s %s\n",
				job.CreatedAt.Local().Format("2006-01-02 15:04"), job.Title, job.Company, job.Location)
		}
	}
	return nil
}

func printFingerprint(cmd *cobra.Command, s *store, fingerprint string) error {
	exists, err := s.jobs.Exists(cmd.Context(), fingerprint)
	if err != nil {
		return err
	}

	if exists {
		fmt.Fprintf(cmd.OutOrStdout(), "Job %s is stored\n", fingerprint)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Job %s is not stored\n", fingerprint)
	}
	return nil
}
