package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import, sync, and scoring runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		if err := s.Migrate(ctx); err != nil {
			return eris.Wrap(err, "runs: migrate")
		}

		runs, err := s.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs: list")
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("%-36s %-8s %8s  %-19s  %s\n", "ID", "Kind", "Entities", "Created", "Summary")
		fmt.Println(strings.Repeat("-", 110))
		for _, r := range runs {
			summary := string(r.Summary)
			if summary == "null" {
				summary = ""
			}
			fmt.Printf("%-36s %-8s %8d  %-19s  %s\n",
				r.ID, r.Kind, r.Entities, r.CreatedAt.Format("2006-01-02 15:04:05"), truncName(summary, 40))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
