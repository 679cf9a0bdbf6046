package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/insight"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score all accounts: health, attrition, behavior, bucket",
	Long: `Score aggregates stored transactions into per-account facts over the two
comparison windows, then computes the full signal set for every account:
composite health score, attrition risk, behavior segment, cross-sell
opportunities, and strategic bucket assignment.

Examples:
  # Score everything, print the summary table
  score

  # Export to CSV
  score --format csv --output scores.csv

  # Full signal detail as JSON
  score --format json

  # Record the run in the scoring_runs table
  score --save`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv, or json")
	f.Bool("save", false, "record the run in scoring_runs")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")

	if err := validFormat(format, "table", "csv", "json"); err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return eris.Wrap(err, "score: migrate")
	}

	now := time.Now().UTC()
	entities, err := loadFacts(ctx, s, now)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Println("No transactions in the scoring window. Run 'import' or 'sync' first.")
		return nil
	}

	log := zap.L().With(zap.String("command", "score"))
	log.Info("scoring accounts",
		zap.Int("accounts", len(entities)),
		zap.Int("window_days", cfg.Facts.WindowDays),
	)

	signals, err := engine.ScoreAll(ctx, entities, cfg.Batch.MaxConcurrentEntities, now)
	if err != nil {
		return eris.Wrap(err, "score: run engine")
	}

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		err = writeJSON(w, signals)
	case "csv":
		err = writeScoreCSV(w, signals)
	default:
		err = writeScoreTable(w, signals)
	}
	if err != nil {
		return err
	}

	if save {
		if err := saveRunSummary(ctx, s, "score", len(signals), scoreSummary(signals)); err != nil {
			return err
		}
		fmt.Println("Run recorded in scoring_runs.")
	}

	if outputPath == "" && format == "table" {
		printScoreSummary(signals)
	}
	return nil
}

// scoreSummary builds the compact per-run summary persisted with --save.
func scoreSummary(signals []insight.EntitySignals) map[string]any {
	byStatus := map[string]int{}
	byBucket := map[string]int{}
	var revenueAtRisk float64
	for _, s := range signals {
		byStatus[string(s.Attrition.Status)]++
		byBucket[string(s.Assignment.Bucket)]++
		revenueAtRisk += s.Attrition.RevenueAtRisk
	}
	return map[string]any{
		"by_status":       byStatus,
		"by_bucket":       byBucket,
		"revenue_at_risk": revenueAtRisk,
	}
}

func printScoreSummary(signals []insight.EntitySignals) {
	if len(signals) == 0 {
		fmt.Println("No results.")
		return
	}
	var sumHealth int
	byStatus := map[string]int{}
	var atRiskRevenue float64
	for _, s := range signals {
		sumHealth += s.Health.Overall
		byStatus[string(s.Attrition.Status)]++
		atRiskRevenue += s.Attrition.RevenueAtRisk
	}
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Accounts scored:  %d\n", len(signals))
	fmt.Printf("Average health:   %d\n", sumHealth/len(signals))
	fmt.Printf("At risk/churned:  %d\n", byStatus["at_risk"]+byStatus["churned"])
	fmt.Printf("Revenue at risk:  $%s\n", formatMoney(atRiskRevenue))
}

func writeScoreCSV(w *os.File, signals []insight.EntitySignals) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"entity_id", "name", "health", "tier", "attrition_score", "status",
		"segment", "bucket", "current_revenue", "revenue_at_risk", "cross_sell_potential",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, s := range signals {
		row := []string{
			s.Facts.EntityID,
			s.Facts.Name,
			fmt.Sprintf("%d", s.Health.Overall),
			string(s.Health.Tier),
			fmt.Sprintf("%.1f", s.Attrition.Score),
			string(s.Attrition.Status),
			string(s.Behavior.Segment),
			string(s.Assignment.Bucket),
			fmt.Sprintf("%.2f", s.Facts.Current.Revenue),
			fmt.Sprintf("%.2f", s.Attrition.RevenueAtRisk),
			fmt.Sprintf("%.2f", s.Assignment.Metrics.CrossSellPotential),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func writeScoreTable(w *os.File, signals []insight.EntitySignals) error {
	header := fmt.Sprintf("%-40s %6s %-9s %6s %-9s %-15s %-19s %14s\n",
		"Account", "Health", "Tier", "Attr", "Status", "Segment", "Bucket", "Revenue")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "score: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 124)); err != nil {
		return eris.Wrap(err, "score: write table separator")
	}

	for _, s := range signals {
		line := fmt.Sprintf("%-40s %6d %-9s %6.1f %-9s %-15s %-19s %14s\n",
			truncName(s.Facts.Name, 40),
			s.Health.Overall,
			s.Health.Tier,
			s.Attrition.Score,
			s.Attrition.Status,
			s.Behavior.Segment,
			s.Assignment.Bucket,
			"$"+formatMoney(s.Facts.Current.Revenue),
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "score: write table row")
		}
	}
	return nil
}
