package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/account-intel/internal/insight"
	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/internal/store"
)

var attritionCmd = &cobra.Command{
	Use:   "attrition",
	Short: "Report attrition risk across all accounts",
	Long: `Attrition scores every account's churn risk from recency, spend decline,
order-frequency decline, and category contraction, and reports accounts
ordered worst-first.

Accounts whose behavior makes period comparison meaningless (project buyers,
seasonal accounts outside their season) are excluded unless --all is set.

Examples:
  # Only at-risk and churned accounts
  attrition --status at_risk,churned

  # Everything, including ineligible segments
  attrition --all --format csv --output attrition.csv`,
	RunE: runAttrition,
}

func init() {
	f := attritionCmd.Flags()
	f.String("status", "", "comma-separated status filter (active,declining,at_risk,churned)")
	f.Bool("all", false, "include accounts whose segment is not attrition-eligible")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv, or json")

	rootCmd.AddCommand(attritionCmd)
}

func runAttrition(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statusFlag, _ := cmd.Flags().GetString("status")
	includeAll, _ := cmd.Flags().GetBool("all")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := validFormat(format, "table", "csv", "json"); err != nil {
		return err
	}

	wanted := map[model.AttritionStatus]bool{}
	for _, s := range splitAndTrim(statusFlag) {
		wanted[model.AttritionStatus(s)] = true
	}

	signals, s, err := scoreStored(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	var scores []model.AttritionScore
	for _, sig := range signals {
		if !includeAll && !sig.Behavior.AttritionEligible {
			continue
		}
		if len(wanted) > 0 && !wanted[sig.Attrition.Status] {
			continue
		}
		scores = append(scores, sig.Attrition)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].RevenueAtRisk > scores[j].RevenueAtRisk
	})

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		return writeJSON(w, scores)
	case "csv":
		return writeAttritionCSV(w, scores)
	default:
		return writeAttritionTable(w, scores)
	}
}

// scoreStored is the shared load-facts-and-score path used by the reporting
// commands.
func scoreStored(ctx context.Context) ([]insight.EntitySignals, store.Store, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, nil, err
	}

	s, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "migrate")
	}

	now := time.Now().UTC()
	entities, err := loadFacts(ctx, s, now)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, nil, err
	}

	signals, err := engine.ScoreAll(ctx, entities, cfg.Batch.MaxConcurrentEntities, now)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, nil, err
	}
	return signals, s, nil
}

func writeAttritionCSV(w *os.File, scores []model.AttritionScore) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"entity_id", "name", "score", "status", "recency_days",
		"monetary_change_pct", "frequency_change_pct", "revenue_at_risk", "new_account",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "attrition: write CSV header")
	}

	for _, r := range scores {
		row := []string{
			r.EntityID,
			r.Name,
			fmt.Sprintf("%.1f", r.Score),
			string(r.Status),
			fmt.Sprintf("%d", r.RecencyDays),
			fmt.Sprintf("%.1f", r.MonetaryChangePct),
			fmt.Sprintf("%.1f", r.FrequencyChangePct),
			fmt.Sprintf("%.2f", r.RevenueAtRisk),
			fmt.Sprintf("%v", r.NewAccount),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "attrition: write CSV row")
		}
	}
	return nil
}

func writeAttritionTable(w *os.File, scores []model.AttritionScore) error {
	header := fmt.Sprintf("%-40s %6s %-10s %8s %8s %8s %14s\n",
		"Account", "Score", "Status", "Recency", "Spend%", "Orders%", "At Risk")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "attrition: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 101)); err != nil {
		return eris.Wrap(err, "attrition: write table separator")
	}

	for _, r := range scores {
		line := fmt.Sprintf("%-40s %6.1f %-10s %7dd %+7.1f %+7.1f %14s\n",
			truncName(r.Name, 40),
			r.Score,
			r.Status,
			r.RecencyDays,
			r.MonetaryChangePct,
			r.FrequencyChangePct,
			"$"+formatMoney(r.RevenueAtRisk),
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "attrition: write table row")
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
