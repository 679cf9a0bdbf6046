package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/insight"
	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/pkg/salesforce"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Rank accounts by strategic-bucket urgency",
	Long: `Actions classifies every account into one of four strategic buckets
(urgent_intervention, defend_and_grow, nurture_up, optimize_exit) and prints
them most-urgent first, with the metric that triggered each classification.

With --push, the bucket assignments are written back to the Salesforce
Account records.

Examples:
  actions --top 25
  actions --bucket urgent_intervention
  actions --push`,
	RunE: runActions,
}

func init() {
	f := actionsCmd.Flags()
	f.Int("top", 0, "limit output to the N most urgent accounts (0=all)")
	f.String("bucket", "", "only show one bucket")
	f.Bool("push", false, "write bucket assignments back to Salesforce accounts")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(actionsCmd)
}

func runActions(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topN, _ := cmd.Flags().GetInt("top")
	bucketFlag, _ := cmd.Flags().GetString("bucket")
	push, _ := cmd.Flags().GetBool("push")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := validFormat(format, "table", "json"); err != nil {
		return err
	}

	signals, s, err := scoreStored(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	ranked := insight.RankActions(signals, topN)

	if bucketFlag != "" {
		var filtered []model.StrategicBucketAssignment
		for _, a := range ranked {
			if string(a.Bucket) == bucketFlag {
				filtered = append(filtered, a)
			}
		}
		ranked = filtered
	}

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		err = writeJSON(w, ranked)
	default:
		err = writeActionsTable(w, ranked)
	}
	if err != nil {
		return err
	}

	if push {
		return pushBuckets(ctx, ranked)
	}
	return nil
}

// pushBuckets writes the assignments back to Salesforce.
func pushBuckets(ctx context.Context, ranked []model.StrategicBucketAssignment) error {
	sf, err := initSalesforce()
	if err != nil {
		return err
	}

	assignments := make(map[string]string, len(ranked))
	for _, a := range ranked {
		assignments[a.EntityID] = string(a.Bucket)
	}

	n, err := salesforce.PushBuckets(ctx, sf, assignments)
	if err != nil {
		return err
	}

	zap.L().Info("bucket assignments pushed", zap.Int("accounts", n))
	fmt.Printf("Pushed %d bucket assignments to Salesforce\n", n)
	return nil
}

func writeActionsTable(w *os.File, ranked []model.StrategicBucketAssignment) error {
	header := fmt.Sprintf("%-40s %-19s %14s %14s  %s\n",
		"Account", "Bucket", "Revenue", "At Risk", "Reason")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "actions: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 130)); err != nil {
		return eris.Wrap(err, "actions: write table separator")
	}

	for _, a := range ranked {
		line := fmt.Sprintf("%-40s %-19s %14s %14s  %s\n",
			truncName(a.Name, 40),
			a.Bucket,
			"$"+formatMoney(a.Metrics.CurrentRevenue),
			"$"+formatMoney(a.Metrics.RevenueAtRisk),
			a.Reason,
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "actions: write table row")
		}
	}
	return nil
}
