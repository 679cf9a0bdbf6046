package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/internal/resilience"
	"github.com/sells-group/account-intel/pkg/salesforce"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull closed-won opportunities from Salesforce into the store",
	Long: `Sync queries Salesforce for closed-won opportunities covering both scoring
windows and upserts them into the transaction store. Re-running is safe;
existing rows are overwritten by opportunity ID.`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.Int("days", 0, "history to pull in days (default: twice the scoring window)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		// Both windows are needed for prior-period comparisons.
		days = 2 * cfg.Facts.WindowDays
	}

	sf, err := initSalesforce()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)

	zap.L().Info("pulling opportunities",
		zap.Time("from", from),
		zap.Time("to", now),
	)

	txns, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), "salesforce pull",
		func(ctx context.Context) ([]model.Transaction, error) {
			return salesforce.PullTransactions(ctx, sf, from, now)
		})
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("No closed-won opportunities in range.")
		return nil
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return eris.Wrap(err, "sync: migrate")
	}

	n, err := s.InsertTransactions(ctx, txns)
	if err != nil {
		return eris.Wrap(err, "sync: insert transactions")
	}

	if err := saveRunSummary(ctx, s, "sync", len(txns), map[string]any{
		"from":     from.Format("2006-01-02"),
		"to":       now.Format("2006-01-02"),
		"inserted": n,
	}); err != nil {
		return err
	}

	zap.L().Info("sync complete", zap.Int("pulled", len(txns)), zap.Int("inserted", n))
	fmt.Printf("Synced %d opportunities from Salesforce\n", n)
	return nil
}
